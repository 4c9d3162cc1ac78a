package web

import (
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/krazybird78/travel-plug-checker/internal/affiliate"
	"github.com/krazybird78/travel-plug-checker/internal/core"
	"github.com/krazybird78/travel-plug-checker/internal/logging"
)

// countrySummary is one entry of the country picker.
type countrySummary struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// checkResponse is the answer to a resolved check.
type checkResponse struct {
	Home     core.Profile             `json:"home"`
	Dest     core.Profile             `json:"dest"`
	Result   core.CompatibilityResult `json:"result"`
	Advisory core.Advisory            `json:"advisory"`
	Region   affiliate.Region         `json:"region"`
	Link     string                   `json:"link"`
}

// pendingResponse is returned while home or destination is unresolved.
type pendingResponse struct {
	Pending bool `json:"pending"`
}

// verdict is what the check page renders once both countries resolve.
type verdict struct {
	home, dest core.Profile
	result     core.CompatibilityResult
	advisory   core.Advisory
	link       string
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("OK"))
}

// loadCatalog returns the catalog or writes a 503 and returns false.
func (s *Server) loadCatalog(w http.ResponseWriter, r *http.Request) (*core.Catalog, bool) {
	catalog, err := s.catalog()
	if err != nil {
		s.metrics.ObserveCatalogError()
		s.respondError(w, r, fmt.Errorf("%w: %w", core.ErrDatasetUnavailable, err), http.StatusServiceUnavailable)
		return nil, false
	}
	return catalog, true
}

// handleListCountries lists countries whose name contains ?q=.
func (s *Server) handleListCountries(w http.ResponseWriter, r *http.Request) {
	catalog, ok := s.loadCatalog(w, r)
	if !ok {
		return
	}

	matches := catalog.Search(r.URL.Query().Get("q"))
	out := make([]countrySummary, len(matches))
	for i, p := range matches {
		out[i] = countrySummary{Name: p.Name, Code: p.Code}
	}

	writeJSON(w, r, out)
}

// handleGetCountry returns one full profile.
func (s *Server) handleGetCountry(w http.ResponseWriter, r *http.Request) {
	catalog, ok := s.loadCatalog(w, r)
	if !ok {
		return
	}

	name := strings.TrimSpace(chi.URLParam(r, "name"))
	if name == "" {
		s.respondError(w, r, fmt.Errorf("%w: name", core.ErrMissingParameter), http.StatusBadRequest)
		return
	}

	p, found := catalog.Find(name)
	if !found {
		s.respondError(w, r, fmt.Errorf("%w: %q", core.ErrCountryNotFound, name), http.StatusNotFound)
		return
	}

	writeJSON(w, r, p)
}

// handleCheck evaluates ?home= against ?dest=. An unresolved selection is
// reported as pending rather than as an error.
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	catalog, ok := s.loadCatalog(w, r)
	if !ok {
		return
	}

	v, resolved := s.resolve(catalog, r)
	if !resolved {
		s.metrics.ObservePending()
		writeJSON(w, r, pendingResponse{Pending: true})
		return
	}

	s.metrics.ObserveCheck(v.result)
	logger := logging.WithFields(r.Context(), "home", v.home.Name, "dest", v.dest.Name)
	logger.Debug("check",
		"needs_adapter", v.result.NeedsAdapter,
		"needs_converter", v.result.NeedsConverter,
	)

	writeJSON(w, r, checkResponse{
		Home:     v.home,
		Dest:     v.dest,
		Result:   v.result,
		Advisory: v.advisory,
		Region:   s.region(r),
		Link:     v.link,
	})
}

// handleCheckPage renders the HTML checker, with a verdict when both
// countries resolve.
func (s *Server) handleCheckPage(w http.ResponseWriter, r *http.Request) {
	catalog, ok := s.loadCatalog(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	page := checkPageData{
		names: catalog.Names(),
		home:  strings.TrimSpace(q.Get("home")),
		dest:  strings.TrimSpace(q.Get("dest")),
	}

	if v, resolved := s.resolve(catalog, r); resolved {
		s.metrics.ObserveCheck(v.result)
		page.verdict = &v
	} else if page.home != "" || page.dest != "" {
		s.metrics.ObservePending()
	}

	templ.Handler(checkPage(page)).ServeHTTP(w, r)
}

// resolve looks up home and dest from the query and evaluates them.
func (s *Server) resolve(catalog *core.Catalog, r *http.Request) (verdict, bool) {
	q := r.URL.Query()
	home, homeOK := catalog.Find(strings.TrimSpace(q.Get("home")))
	dest, destOK := catalog.Find(strings.TrimSpace(q.Get("dest")))
	if !homeOK || !destOK {
		return verdict{}, false
	}

	result := core.Evaluate(home, dest)
	return verdict{
		home:     home,
		dest:     dest,
		result:   result,
		advisory: core.Advise(result, dest),
		link:     s.links.Load().Link(s.region(r), s.cfg.Affiliate.ProductASIN),
	}, true
}

// region picks the storefront region: ?region= wins, then ?tz=, then the
// configured default.
func (s *Server) region(r *http.Request) affiliate.Region {
	q := r.URL.Query()
	if region := strings.TrimSpace(q.Get("region")); region != "" {
		return affiliate.Region(strings.ToUpper(region))
	}
	return s.links.Load().DetectRegion(q.Get("tz"))
}

// clientIP strips the port from a RemoteAddr. TrustedRealIP may already have
// replaced it with a bare IP.
func clientIP(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
