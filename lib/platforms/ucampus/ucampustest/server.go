// Package ucampustest serves a minimal imitation of the U-Campus portal for
// tests, it implements the login handshake and serves static course pages.
package ucampustest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"
)

const (
	Username = "alumno@alumnos.uahurtado.cl"
	Password = "hunter2"

	SessionValue = "sess-0001"
	authCookie   = "_ucampus_auth"
)

type LoginAttempt struct {
	Form url.Values
	// Cookie is the value of the session cookie the client sent along.
	Cookie string
}

// Portal is a fake portal, fields must be configured before the first
// request is made.
type Portal struct {
	Server *httptest.Server

	// IssueCookie controls whether the root page sets the session cookie.
	IssueCookie bool
	// LoginBody replaces the json answer of the login endpoint.
	LoginBody string
	// OmitContinuation answers a successful login without the "u" field.
	OmitContinuation bool
	// Pages maps request paths to their markup.
	Pages map[string]string
	// Status maps request paths to a forced status code.
	Status map[string]int
	// Delay maps request paths to a wait before answering.
	Delay map[string]time.Duration

	mu       sync.Mutex
	logins   []LoginAttempt
	requests []string
}

func NewPortal(t testing.TB) *Portal {
	p := &Portal{
		IssueCookie: true,
		Pages:       map[string]string{},
		Status:      map[string]int{},
		Delay:       map[string]time.Duration{},
	}
	p.Server = httptest.NewServer(http.HandlerFunc(p.serve))
	t.Cleanup(p.Server.Close)
	return p
}

func (p *Portal) URL() string {
	return p.Server.URL
}

func (p *Portal) CourseBaseURL() string {
	return p.Server.URL + "/uah"
}

func (p *Portal) ContinuationURL() string {
	return p.Server.URL + "/continue"
}

// SetCourse registers the pages of a course section for `term`.
func (p *Portal) SetCourse(term, code string, section int, grades, attendance string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	prefix := CoursePath(term, code, section)
	p.Pages[prefix+"/notas/alumno"] = grades
	p.Pages[prefix+"/asistencias2/"] = attendance
}

func CoursePath(term, code string, section int) string {
	return "/uah/" + term + "/" + code + "/" + strconv.Itoa(section)
}

func (p *Portal) Logins() []LoginAttempt {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]LoginAttempt(nil), p.logins...)
}

// Requests returns "<method> <path>" for every request received.
func (p *Portal) Requests() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.requests...)
}

func (p *Portal) serve(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	delay := p.Delay[r.URL.Path]
	p.mu.Unlock()
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.requests = append(p.requests, r.Method+" "+r.URL.Path)

	if status, ok := p.Status[r.URL.Path]; ok {
		w.WriteHeader(status)
		return
	}

	switch {
	case r.URL.Path == "/" && r.Method == http.MethodGet:
		if p.IssueCookie {
			http.SetCookie(w, &http.Cookie{Name: "_ucampus", Value: SessionValue, Path: "/"})
		}
		w.Write([]byte("<html><body>login</body></html>"))
	case r.URL.Path == "/auth/api" && r.Method == http.MethodPost:
		p.serveLogin(w, r)
	case r.URL.Path == "/continue" && r.Method == http.MethodGet:
		http.SetCookie(w, &http.Cookie{Name: authCookie, Value: "1", Path: "/"})
		w.Write([]byte("<html><body>welcome</body></html>"))
	default:
		page, ok := p.Pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		if c, err := r.Cookie(authCookie); err != nil || c.Value != "1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("content-type", "text/html; charset=utf-8")
		w.Write([]byte(page))
	}
}

func (p *Portal) serveLogin(w http.ResponseWriter, r *http.Request) {
	err := r.ParseForm()
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	attempt := LoginAttempt{Form: r.PostForm}
	if c, err := r.Cookie("_ucampus"); err == nil {
		attempt.Cookie = c.Value
	}
	p.logins = append(p.logins, attempt)

	w.Header().Set("content-type", "application/json")
	if p.LoginBody != "" {
		w.Write([]byte(p.LoginBody))
		return
	}

	body := map[string]any{}
	if r.PostForm.Get("username") == Username &&
		r.PostForm.Get("password") == Password &&
		r.PostForm.Get("_sess") == attempt.Cookie {
		body["status"] = http.StatusOK
		if !p.OmitContinuation {
			body["u"] = p.ContinuationURL()
		}
	} else {
		body["status"] = http.StatusUnauthorized
		body["m"] = "Usuario o contraseña incorrectos"
	}
	json.NewEncoder(w).Encode(body)
}
