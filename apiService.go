package main

import (
	"crypto/subtle"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"strings"

	"github.com/buger/jsonparser"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type apiResponse struct {
	Response string          `json:"response"`
	Error    string          `json:"error,omitempty"`
	Status   *statusSnapshot `json:"status,omitempty"`
}

// apiHandler serves the loop status and takes display overrides over HTTP
type apiHandler struct {
	rt     runtimeConfig
	secret string
	user   string
	realm  string
	logger flogger
}

func newAPIHandler(rt runtimeConfig) *apiHandler {
	h := &apiHandler{
		rt:     rt,
		secret: rt.settings.GetString(sHTTPSecret),
		user:   "sonar",
		realm:  "sonar",
		logger: &ThreadLogger{name: "API"},
	}
	if h.secret == "" {
		h.secret = generateSecret()
		h.logger.Printf("No %s set, using: %s", sHTTPSecret, h.secret)
	}
	return h
}

func generateSecret() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// BasicAuth - provide a middleware to authenticate users
func (h *apiHandler) BasicAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(user), []byte(h.user)) != 1 ||
			subtle.ConstantTimeCompare([]byte(pass), []byte(h.secret)) != 1 {
			w.Header().Set("WWW-Authenticate", `Basic realm="`+h.realm+`"`)
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte("Unauthorised.\n"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *apiHandler) router() *mux.Router {
	r := mux.NewRouter()
	r.Use(h.BasicAuth)
	r.HandleFunc("/api/status", h.apiStatus).Methods("GET")
	r.HandleFunc("/api/value", h.apiValue).Methods("POST")
	r.HandleFunc("/", h.rootHandler)
	return r
}

func writeAnswer(w http.ResponseWriter, code int, ar apiResponse) {
	output, _ := json.Marshal(ar)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(output)
}

func (h *apiHandler) apiStatus(w http.ResponseWriter, r *http.Request) {
	s := h.rt.status.get()
	writeAnswer(w, http.StatusOK, apiResponse{Response: "OK", Status: &s})
}

// apiValue takes {"value": N} and shows N in place of the sonar reading
func (h *apiHandler) apiValue(w http.ResponseWriter, r *http.Request) {
	body, err := ioutil.ReadAll(http.MaxBytesReader(w, r.Body, 1024))
	if err != nil {
		writeAnswer(w, http.StatusBadRequest, apiResponse{Response: "BAD", Error: err.Error()})
		return
	}
	v, err := jsonparser.GetInt(body, "value")
	if err != nil {
		writeAnswer(w, http.StatusBadRequest, apiResponse{Response: "BAD", Error: "value: " + err.Error()})
		return
	}
	h.logger.Printf("Override request: %d", v)
	sendOverride(h.rt.comms.override, overrideMsg{value: v, source: srcHTTP})
	writeAnswer(w, http.StatusAccepted, apiResponse{Response: "OK"})
}

func (h *apiHandler) rootHandler(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/api/status", http.StatusMovedPermanently)
}

// runAPIService keeps svc up until quit.
func runAPIService(rt runtimeConfig, svc overrideService) {
	defer wg.Done()

	handler := newAPIHandler(rt)
	addr := rt.settings.GetString(sHTTPAddr)
	if err := svc.launch(handler, addr); err != nil {
		handler.logger.Printf("Error: %s", err.Error())
		return
	}
	handler.logger.Printf("API service on %s", addr)

	<-rt.comms.quit
	handler.logger.Println("quit from API service")
	svc.stop()
}
