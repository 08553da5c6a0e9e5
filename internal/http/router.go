package http

import (
	"net/http"
	"strings"
)

const healthPath = "/healthz"

type RouterConfig struct {
	Categories   *CategoryHandler
	Appointments *AppointmentHandler
	Calendar     *CalendarHandler
	Preferences  *PreferenceHandler
	Pax          *PaxHandler
	Time         *TimeHandler
	Transfer     *TransferHandler
	Middleware   []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc(healthPath, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	if cfg.Categories != nil {
		mux.HandleFunc("/api/categories", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Categories.List(w, r)
			case http.MethodPost:
				cfg.Categories.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/api/categories/", func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimPrefix(r.URL.Path, "/api/categories/")
			if id == "" || strings.Contains(id, "/") {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithResourceID(r.Context(), id))
			switch r.Method {
			case http.MethodGet:
				cfg.Categories.Get(w, r)
			case http.MethodPut:
				cfg.Categories.Update(w, r)
			case http.MethodDelete:
				cfg.Categories.Delete(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
			}
		})
	}

	if cfg.Appointments != nil {
		mux.HandleFunc("/api/appointments", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Appointments.List(w, r)
			case http.MethodPost:
				cfg.Appointments.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/api/appointments/", func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimPrefix(r.URL.Path, "/api/appointments/")
			if id == "" || strings.Contains(id, "/") {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithResourceID(r.Context(), id))
			switch r.Method {
			case http.MethodGet:
				cfg.Appointments.Get(w, r)
			case http.MethodPut:
				cfg.Appointments.Update(w, r)
			case http.MethodDelete:
				cfg.Appointments.Delete(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
			}
		})
	}

	if cfg.Calendar != nil {
		handleGet(mux, "/api/agenda", cfg.Calendar.Agenda)
		handleGet(mux, "/api/calendar/week", cfg.Calendar.Week)
		handleGet(mux, "/api/calendar/month", cfg.Calendar.Month)
		handleGet(mux, "/api/calendar.ics", cfg.Calendar.Feed)
	}

	if cfg.Preferences != nil {
		mux.HandleFunc("/api/preferences", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Preferences.Get(w, r)
			case http.MethodPut, http.MethodPatch:
				cfg.Preferences.Update(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodPatch)
			}
		})
	}

	if cfg.Pax != nil {
		mux.HandleFunc("/api/pax", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Pax.State(w, r)
			case http.MethodPost:
				cfg.Pax.Select(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		handlePost(mux, "/api/pax/import", cfg.Pax.Import)
		handleGet(mux, "/api/pax/country", cfg.Pax.Country)
		handlePost(mux, "/api/pax/appointments", cfg.Pax.ImportAppointments)
	}

	if cfg.Time != nil {
		handleGet(mux, "/api/time/today", cfg.Time.Today)
		handleGet(mux, "/api/time/min-start", cfg.Time.MinStart)
		handleGet(mux, "/api/time/span", cfg.Time.Span)
		handleGet(mux, "/api/time/zone-state", cfg.Time.ZoneState)
		handleGet(mux, "/api/time/zones", cfg.Time.Zones)
	}

	if cfg.Transfer != nil {
		handleGet(mux, "/api/export", cfg.Transfer.Export)
		handlePost(mux, "/api/import", cfg.Transfer.Import)
	}

	var handler http.Handler = mux
	if len(cfg.Middleware) > 0 {
		for i := len(cfg.Middleware) - 1; i >= 0; i-- {
			if cfg.Middleware[i] != nil {
				handler = cfg.Middleware[i](handler)
			}
		}
	}

	return handler
}

func handleGet(mux *http.ServeMux, pattern string, handler http.HandlerFunc) {
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		handler(w, r)
	})
}

func handlePost(mux *http.ServeMux, pattern string, handler http.HandlerFunc) {
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}
		handler(w, r)
	})
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
