package internalhttp

import (
	"net/http"

	"github.com/Neamul01/breeze-time-server/internal/storage"
)

const rootMessage = "Breeze Time Server Running"

type userRequest struct {
	Name  string `json:"userName"`
	Email string `json:"email" validate:"required|regexp:^[^@\\s]+@[^@\\s]+\\.[^@\\s]+$"`
}

type userPatchRequest struct {
	Name  *string `json:"userName"`
	Photo *string `json:"photo"`
	Phone *string `json:"phone"`
}

type upsertUserResponse struct {
	User  storage.User `json:"user"`
	Token string       `json:"token"`
}

type adminResponse struct {
	Admin bool `json:"admin"`
}

// eventRequest accepts the event type as "event" or "eventType".
type eventRequest struct {
	Name        string `json:"eventName" validate:"required"`
	Event       string `json:"event"`
	Type        string `json:"eventType"`
	Description string `json:"description"`
	DateTime    string `json:"dateTime" validate:"required"`
	HostID      string `json:"hostId"`
}

func (r eventRequest) toEvent() (storage.Event, error) {
	start, err := storage.ParseDateTime(r.DateTime)
	if err != nil {
		return storage.Event{}, err
	}
	eventType := r.Event
	if eventType == "" {
		eventType = r.Type
	}
	return storage.Event{
		Name:        r.Name,
		Type:        eventType,
		Description: r.Description,
		DateTime:    start,
		HostID:      r.HostID,
	}, nil
}

type professionalRequest struct {
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email"`
	Specialty  string `json:"specialty"`
	Bio        string `json:"bio" validate:"max:2000"`
	HourlyRate int64  `json:"hourlyRate" validate:"min:0"`
}

type packageRequest struct {
	Name     string   `json:"name" validate:"required"`
	Tier     string   `json:"tier" validate:"required|in:basic,standard,premium"`
	Price    int64    `json:"price" validate:"min:0"`
	Features []string `json:"features" validate:"min:1"`
}

func (s *Server) root(w http.ResponseWriter, _ *http.Request, _ map[string]string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(rootMessage))
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request, _ map[string]string, _ string) {
	users, err := s.app.ListUsers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var req userRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	u, err := s.app.CreateUser(r.Context(), storage.User{Name: req.Name, Email: req.Email})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (s *Server) makeAdmin(w http.ResponseWriter, r *http.Request, params map[string]string, requester string) {
	email := params["email"]
	if err := s.app.MakeAdmin(r.Context(), requester, email); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, adminResponse{Admin: true})
}

func (s *Server) isAdmin(w http.ResponseWriter, r *http.Request, params map[string]string, _ string) {
	admin, err := s.app.IsAdmin(r.Context(), params["email"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, adminResponse{Admin: admin})
}

func (s *Server) upsertUser(w http.ResponseWriter, r *http.Request, params map[string]string) {
	var req userPatchRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	patch := storage.UserPatch{Name: req.Name, Photo: req.Photo, Phone: req.Phone}
	u, token, err := s.app.UpsertUser(r.Context(), params["email"], patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, upsertUserResponse{User: u, Token: token})
}

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	events, err := s.app.ListEvents(r.Context(), r.URL.Query().Get("host"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) createEvent(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var req eventRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	e, err := req.toEvent()
	if err != nil {
		writeError(w, err)
		return
	}
	e, err = s.app.CreateEvent(r.Context(), e)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) getEvent(w http.ResponseWriter, r *http.Request, params map[string]string) {
	e, err := s.app.GetEvent(r.Context(), params["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) updateEvent(w http.ResponseWriter, r *http.Request, params map[string]string) {
	var req eventRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	e, err := req.toEvent()
	if err != nil {
		writeError(w, err)
		return
	}
	e, err = s.app.UpdateEvent(r.Context(), params["id"], e)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) removeEvent(w http.ResponseWriter, r *http.Request, params map[string]string) {
	if err := s.app.RemoveEvent(r.Context(), params["id"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listNotifications(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	notifications, err := s.app.ListNotifications(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, notifications)
}

func (s *Server) listProfessionals(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	professionals, err := s.app.ListProfessionals(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, professionals)
}

func (s *Server) createProfessional(w http.ResponseWriter, r *http.Request, _ map[string]string, _ string) {
	var req professionalRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	p, err := s.app.CreateProfessional(r.Context(), storage.Professional{
		Name:       req.Name,
		Email:      req.Email,
		Specialty:  req.Specialty,
		Bio:        req.Bio,
		HourlyRate: req.HourlyRate,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) getProfessional(w http.ResponseWriter, r *http.Request, params map[string]string) {
	p, err := s.app.GetProfessional(r.Context(), params["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) listPackages(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	packages, err := s.app.ListPackages(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, packages)
}

func (s *Server) createPackage(w http.ResponseWriter, r *http.Request, _ map[string]string, _ string) {
	var req packageRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	p, err := s.app.CreatePackage(r.Context(), storage.Package{
		Name:     req.Name,
		Tier:     req.Tier,
		Price:    req.Price,
		Features: req.Features,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}
