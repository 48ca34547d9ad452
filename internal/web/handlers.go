package web

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	apperrors "github.com/forgewatch/forgewatch/internal/platform/errors"
	"github.com/forgewatch/forgewatch/internal/platform/timeouts"
	"github.com/forgewatch/forgewatch/internal/telegram"
	"github.com/forgewatch/forgewatch/internal/tracker/domain"
)

type dashboardView struct {
	User            domain.User
	Repos           []domain.Repository
	Linked          bool
	NotifyNewIssues bool
	Error           string
}

type teamView struct {
	User         domain.User
	Contributors []domain.Contributor
	Repos        []domain.Repository
	Error        string
}

type serviceStatus struct {
	Name    string
	Healthy bool
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if _, ok := s.sessionUser(r); ok {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		s.render(w, "login.html", map[string]string{})
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	email := r.FormValue("email")
	password := r.FormValue("password")
	user, err := s.store.UserByEmail(r.Context(), email)
	if err != nil || !user.Active || !user.CheckPassword(password) {
		w.WriteHeader(http.StatusUnauthorized)
		s.render(w, "login.html", map[string]string{"Error": "Invalid email or password."})
		return
	}

	session, _ := s.sessions.Get(r, sessionName)
	session.Values["user_id"] = user.ID
	if err := session.Save(r, w); err != nil {
		http.Error(w, "could not start session", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	session, _ := s.sessions.Get(r, sessionName)
	delete(session.Values, "user_id")
	session.Options.MaxAge = -1
	_ = session.Save(r, w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	s.renderDashboard(w, r, user, "")
}

func (s *Server) renderDashboard(w http.ResponseWriter, r *http.Request, user domain.User, errMsg string) {
	view := dashboardView{User: user, Error: errMsg}

	repos, err := s.store.RepositoriesByUser(r.Context(), user.ID)
	if err != nil {
		log.Printf("list repositories for %s: %v", user.ID, err)
	}
	view.Repos = repos

	link, err := s.store.TelegramLinkByUserID(r.Context(), user.ID)
	switch {
	case err == nil:
		view.Linked = true
		view.NotifyNewIssues = link.NotifyNewIssues
	case apperrors.CodeOf(err) != apperrors.CodeTelegramLinkNotFound:
		log.Printf("load telegram link for %s: %v", user.ID, err)
	}

	s.render(w, "dashboard.html", view)
}

func (s *Server) handleCreateRepository(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	timeLimit := domain.DefaultTimeLimit
	if raw := r.FormValue("time_limit_hours"); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil || hours <= 0 {
			s.renderDashboard(w, r, user, "Time limit must be a positive number of hours.")
			return
		}
		timeLimit = time.Duration(hours) * time.Hour
	}

	repo, err := domain.NewRepository(user.ID, r.FormValue("name"), r.FormValue("author"), r.FormValue("link"), timeLimit)
	if err != nil {
		s.renderDashboard(w, r, user, err.Error())
		return
	}
	if s.verifyLinks {
		verifyCtx, cancel := context.WithTimeout(r.Context(), timeouts.HTTPRequest)
		err := repo.VerifyLink(verifyCtx, nil)
		cancel()
		if err != nil {
			s.renderDashboard(w, r, user, "Repository link did not respond: "+err.Error())
			return
		}
	}
	if err := s.store.CreateRepository(r.Context(), repo); err != nil {
		s.renderDashboard(w, r, user, err.Error())
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (s *Server) handleDeleteRepository(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	repoID := r.FormValue("id")
	repos, err := s.store.RepositoriesByUser(r.Context(), user.ID)
	if err != nil {
		http.Error(w, "could not load repositories", http.StatusInternalServerError)
		return
	}
	owned := false
	for _, repo := range repos {
		if repo.ID == repoID {
			owned = true
			break
		}
	}
	if !owned {
		http.Error(w, "repository not found", http.StatusNotFound)
		return
	}
	if err := s.store.DeleteRepository(r.Context(), repoID); err != nil {
		http.Error(w, "could not delete repository", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (s *Server) handleTelegramLink(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		log.Printf("issue link token for %s: %v", user.ID, err)
		http.Error(w, "could not create a link token", http.StatusInternalServerError)
		return
	}

	view := struct {
		DeepLink string
		Token    string
		TTL      time.Duration
	}{Token: token, TTL: s.tokens.TTL}
	if s.botUsername != "" {
		view.DeepLink = telegram.DeepLink(s.botUsername, token)
	}
	s.render(w, "link.html", view)
}

func (s *Server) handleTeam(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireLead(w, r)
	if !ok {
		return
	}
	s.renderTeam(w, r, user, "")
}

func (s *Server) renderTeam(w http.ResponseWriter, r *http.Request, user domain.User, errMsg string) {
	view := teamView{User: user, Error: errMsg}

	contributors, err := s.store.ListContributors(r.Context())
	if err != nil {
		log.Printf("list contributors: %v", err)
	}
	view.Contributors = contributors

	repos, err := s.store.RepositoriesByUser(r.Context(), user.ID)
	if err != nil {
		log.Printf("list repositories for %s: %v", user.ID, err)
	}
	view.Repos = repos

	s.render(w, "team.html", view)
}

func (s *Server) handleCreateContributor(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireLead(w, r)
	if !ok {
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rank := 0
	if raw := r.FormValue("rank"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			s.renderTeam(w, r, user, "Rank must be a number.")
			return
		}
		rank = parsed
	}
	role, err := domain.ParseRole(r.FormValue("role"))
	if err != nil {
		s.renderTeam(w, r, user, err.Error())
		return
	}

	contributor, err := domain.NewContributor(r.FormValue("user_id"), role, r.FormValue("notes"), rank)
	if err != nil {
		s.renderTeam(w, r, user, err.Error())
		return
	}
	if err := s.store.CreateContributor(r.Context(), contributor); err != nil {
		s.renderTeam(w, r, user, err.Error())
		return
	}
	http.Redirect(w, r, "/team", http.StatusSeeOther)
}

func (s *Server) handleCreateSupport(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireLead(w, r)
	if !ok {
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	support, err := domain.NewSupport(user.ID, r.FormValue("repository_id"), r.FormValue("telegram_username"))
	if err != nil {
		s.renderTeam(w, r, user, err.Error())
		return
	}
	if err := s.store.CreateSupport(r.Context(), support); err != nil {
		s.renderTeam(w, r, user, err.Error())
		return
	}
	http.Redirect(w, r, "/team", http.StatusSeeOther)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireUser(w, r); !ok {
		return
	}

	services := []serviceStatus{
		{Name: "bot", Healthy: s.probe(r.Context(), s.botAddr)},
		{Name: "poller", Healthy: s.probe(r.Context(), s.pollerAddr)},
	}
	s.render(w, "status.html", struct{ Services []serviceStatus }{Services: services})
}

// sessionUser resolves the signed-in user from the request session.
func (s *Server) sessionUser(r *http.Request) (domain.User, bool) {
	session, err := s.sessions.Get(r, sessionName)
	if err != nil {
		return domain.User{}, false
	}
	userID, _ := session.Values["user_id"].(string)
	if userID == "" {
		return domain.User{}, false
	}
	user, err := s.store.UserByID(r.Context(), userID)
	if err != nil || !user.Active {
		return domain.User{}, false
	}
	return user, true
}

func (s *Server) requireUser(w http.ResponseWriter, r *http.Request) (domain.User, bool) {
	user, ok := s.sessionUser(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return domain.User{}, false
	}
	return user, true
}

func (s *Server) requireLead(w http.ResponseWriter, r *http.Request) (domain.User, bool) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return domain.User{}, false
	}
	if !user.IsProjectLead() {
		http.Error(w, "forbidden", http.StatusForbidden)
		return domain.User{}, false
	}
	return user, true
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	if err := templates.ExecuteTemplate(w, name, data); err != nil {
		log.Printf("render %s: %v", name, err)
	}
}
