package collector

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/gg7/gentoostats/internal/core"
	"github.com/gg7/gentoostats/internal/types"
)

// MaxUploadBytes caps the size of an upload body.
const MaxUploadBytes = 32 << 20

const (
	headerReceivedAt = "X-Gentoostats-Received-At"
	headerDigest     = "X-Gentoostats-Digest"
)

var variableName = regexp.MustCompile(`^[A-Z_][A-Z0-9_]*$`)

// VersionedEnvelope is decoded first so each protocol can be parsed on its own terms.
type VersionedEnvelope struct {
	Protocol int `json:"PROTOCOL"`
}

// Options configures a Server. Zero values select defaults.
type Options struct {
	Limiter      *RateLimiter
	Logger       *slog.Logger
	MaxBodyBytes int64
	BcryptCost   int
	Now          func() time.Time
}

// Server wraps the collector HTTP handlers.
type Server struct {
	store     Store
	validator *Validator
	limiter   *RateLimiter
	logger    *slog.Logger
	maxBody   int64
	cost      int
	now       func() time.Time
}

// New creates a collector server over store.
func New(store Store, opts Options) (*Server, error) {
	validator, err := NewValidator()
	if err != nil {
		return nil, err
	}
	s := &Server{
		store:     store,
		validator: validator,
		limiter:   opts.Limiter,
		logger:    opts.Logger,
		maxBody:   opts.MaxBodyBytes,
		cost:      opts.BcryptCost,
		now:       opts.Now,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.maxBody <= 0 {
		s.maxBody = MaxUploadBytes
	}
	if s.cost == 0 {
		s.cost = bcrypt.DefaultCost
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// Handler returns the collector HTTP handler.
func (s *Server) Handler() http.Handler {
	var upload http.Handler = http.HandlerFunc(s.handleUpload)
	if s.limiter != nil {
		upload = s.limiter.Middleware(upload)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.Handle("POST /upload", upload)
	mux.Handle("POST /upload/{$}", upload)
	mux.HandleFunc("GET /host/{uuid}", s.handleHost)
	mux.HandleFunc("GET /api/v1/stats/env/{variable}", s.handleEnvStats)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// ============================================================================
// Upload
// ============================================================================

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, fmt.Sprintf("upload exceeds %d bytes", s.maxBody), http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "failed to read upload", http.StatusBadRequest)
		return
	}

	var envelope VersionedEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if envelope.Protocol != types.ProtocolVersion {
		http.Error(w, fmt.Sprintf("unsupported protocol %d", envelope.Protocol), http.StatusBadRequest)
		return
	}

	doc, err := s.validator.Validate(raw)
	if err != nil {
		http.Error(w, "invalid report: "+err.Error(), http.StatusBadRequest)
		return
	}

	var sub types.Submission
	if err := json.Unmarshal(raw, &sub); err != nil || sub.Report == nil || sub.Auth == nil {
		http.Error(w, "invalid report", http.StatusBadRequest)
		return
	}

	log := s.logger.With("host", sub.Auth.UUID, "remote", clientIP(r))

	if err := s.authenticate(r, *sub.Auth); err != nil {
		if errors.Is(err, errBadPassword) {
			log.Warn("upload rejected", "reason", "password mismatch")
			http.Error(w, "authentication failed", http.StatusUnauthorized)
			return
		}
		log.Error("host lookup failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	delete(doc, "AUTH")
	payload, err := json.Marshal(doc)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	digest, err := core.DigestJSON(payload)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	row := SubmissionRow{
		HostUUID:   sub.Auth.UUID,
		Protocol:   envelope.Protocol,
		Digest:     digest,
		Packages:   len(sub.Packages),
		Payload:    payload,
		ReceivedAt: s.now().UTC(),
	}
	if err := s.store.SaveSubmission(r.Context(), row, envEntries(sub.Auth.UUID, sub.Env)); err != nil {
		log.Error("failed to store submission", "error", err)
		http.Error(w, "failed to store submission", http.StatusInternalServerError)
		return
	}

	log.Info("submission stored", "packages", row.Packages, "digest", digest)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "Thanks for your submission (%s)\n", digest[:12])
}

var errBadPassword = errors.New("password mismatch")

// authenticate checks auth against the registered host, registering it on
// first contact.
func (s *Server) authenticate(r *http.Request, auth types.AuthConfig) error {
	ctx := r.Context()
	host, err := s.store.Host(ctx, auth.UUID)
	if errors.Is(err, ErrNotFound) {
		hash, herr := bcrypt.GenerateFromPassword([]byte(auth.Passwd), s.cost)
		if herr != nil {
			return herr
		}
		err = s.store.RegisterHost(ctx, Host{UUID: auth.UUID, PasswdHash: string(hash), CreatedAt: s.now().UTC()})
		if err == nil {
			s.logger.Info("host registered", "host", auth.UUID)
			return nil
		}
		if !errors.Is(err, ErrHostExists) {
			return err
		}
		host, err = s.store.Host(ctx, auth.UUID)
	}
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(host.PasswdHash), []byte(auth.Passwd)) != nil {
		return errBadPassword
	}
	return nil
}

// envEntries flattens a report's ENV into index rows. Null values are not
// indexed.
func envEntries(uuid string, env map[string]types.EnvValue) []EnvEntry {
	var out []EnvEntry
	for name, v := range env {
		switch v.Kind {
		case types.EnvText:
			out = append(out, EnvEntry{HostUUID: uuid, Variable: name, Value: v.Text})
		case types.EnvList:
			seen := make(map[string]bool, len(v.List))
			for _, tok := range v.List {
				if seen[tok] {
					continue
				}
				seen[tok] = true
				out = append(out, EnvEntry{HostUUID: uuid, Variable: name, Value: tok})
			}
		}
	}
	return out
}

// ============================================================================
// Queries
// ============================================================================

func (s *Server) handleHost(w http.ResponseWriter, r *http.Request) {
	uuid := strings.TrimSpace(r.PathValue("uuid"))
	if uuid == "" {
		http.Error(w, "missing host id", http.StatusBadRequest)
		return
	}

	row, err := s.store.LatestSubmission(r.Context(), uuid)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "host not found", http.StatusNotFound)
			return
		}
		s.logger.Error("failed to load submission", "host", uuid, "error", err)
		http.Error(w, "failed to load report", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set(headerReceivedAt, row.ReceivedAt.UTC().Format(time.RFC3339))
	w.Header().Set(headerDigest, row.Digest)
	_, _ = w.Write(row.Payload)
}

// EnvStats is the response of the ENV statistics endpoint.
type EnvStats struct {
	Variable string       `json:"variable"`
	Values   []ValueCount `json:"values"`
}

func (s *Server) handleEnvStats(w http.ResponseWriter, r *http.Request) {
	name := strings.ToUpper(r.PathValue("variable"))
	if !variableName.MatchString(name) {
		http.Error(w, "invalid variable name", http.StatusBadRequest)
		return
	}

	counts, err := s.store.EnvCounts(r.Context(), name)
	if err != nil {
		s.logger.Error("failed to count values", "variable", name, "error", err)
		http.Error(w, "failed to load statistics", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(EnvStats{Variable: name, Values: counts}); err != nil {
		s.logger.Error("failed to encode statistics", "variable", name, "error", err)
	}
}
