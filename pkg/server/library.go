package server

import (
	"cmp"
	"errors"
	"net/http"
	"strings"

	"github.com/germanamz/koinonia/pkg/conversation"
	"github.com/germanamz/koinonia/pkg/presentation"
	"github.com/germanamz/koinonia/pkg/store"
)

const defaultConversationTitle = "New conversation"

type presentationBody struct {
	presentation.Document
	DeviceID string `json:"deviceId"`
}

func (s *Server) listPresentations(w http.ResponseWriter, r *http.Request) {
	dev := deviceID(r)
	if dev == "" {
		writeError(w, http.StatusBadRequest, "deviceId is required")
		return
	}

	list, err := s.store.ListPresentations(r.Context(), dev)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	if list == nil {
		list = []store.Presentation{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) createPresentation(w http.ResponseWriter, r *http.Request) {
	var body presentationBody
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.DeviceID == "" {
		body.DeviceID = deviceID(r)
	}
	if body.DeviceID == "" {
		writeError(w, http.StatusBadRequest, "deviceId is required")
		return
	}

	id, err := s.store.SavePresentation(r.Context(), body.DeviceID, body.Document)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) getPresentation(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.GetPresentation(r.Context(), r.PathValue("id"))
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) updatePresentation(w http.ResponseWriter, r *http.Request) {
	var doc presentation.Document
	if err := decodeJSON(w, r, &doc); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.store.UpdatePresentation(r.Context(), r.PathValue("id"), doc); err != nil {
		s.storeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deletePresentation(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeletePresentation(r.Context(), r.PathValue("id")); err != nil {
		s.storeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listConversations(w http.ResponseWriter, r *http.Request) {
	dev := deviceID(r)
	if dev == "" {
		writeError(w, http.StatusBadRequest, "deviceId is required")
		return
	}

	list, err := s.store.ListConversations(r.Context(), dev)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	if list == nil {
		list = []store.Conversation{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) createConversation(w http.ResponseWriter, r *http.Request) {
	var body struct {
		DeviceID string `json:"deviceId"`
		Title    string `json:"title"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.DeviceID == "" {
		body.DeviceID = deviceID(r)
	}
	if body.DeviceID == "" {
		writeError(w, http.StatusBadRequest, "deviceId is required")
		return
	}

	c, err := s.store.CreateConversation(r.Context(), body.DeviceID, cmp.Or(body.Title, defaultConversationTitle))
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) getConversation(w http.ResponseWriter, r *http.Request) {
	c, err := s.store.GetConversation(r.Context(), r.PathValue("id"))
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) renameConversation(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title string `json:"title"`
	}
	if err := decodeJSON(w, r, &body); err != nil || strings.TrimSpace(body.Title) == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	if err := s.store.RenameConversation(r.Context(), r.PathValue("id"), strings.TrimSpace(body.Title)); err != nil {
		s.storeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deleteConversation(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteConversation(r.Context(), r.PathValue("id")); err != nil {
		s.storeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) conversationMessages(w http.ResponseWriter, r *http.Request) {
	turns, err := s.store.Messages(r.Context(), r.PathValue("id"))
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	if turns == nil {
		turns = []conversation.Turn{}
	}
	writeJSON(w, http.StatusOK, turns)
}

func (s *Server) storeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	s.internalError(w, r, err)
}
