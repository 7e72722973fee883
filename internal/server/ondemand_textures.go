// Package server serves noise textures over HTTP, generating them on demand.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MeKo-Tech/noisetex/internal/imageio"
	"github.com/MeKo-Tech/noisetex/internal/noise"
	"github.com/MeKo-Tech/noisetex/internal/pipeline"
	"github.com/MeKo-Tech/noisetex/internal/texture"
	"github.com/MeKo-Tech/noisetex/internal/worker"
)

// DefaultMaxResolution caps width and height of on-demand requests.
const DefaultMaxResolution = 2048

// lockStripes bounds the number of per-key render locks; keys sharing a
// stripe render one after the other.
const lockStripes = 256

type OnDemandTexturesConfig struct {
	CacheDir       string
	PNGCompression string
	CacheControl   string
	// Defaults fill in query parameters a request leaves out.
	Defaults                 texture.Params
	MaxConcurrentGenerations int
	MaxResolution            int
	GenerationTimeout        time.Duration
	// Workers is the row-band parallelism per texture.
	Workers      int
	DisableCache bool
}

type OnDemandTextures struct {
	logger *slog.Logger
	sem    chan struct{}
	locks  [lockStripes]sync.Mutex
	gens   sync.Map // imageio.Format -> *pipeline.Generator
	cfg    OnDemandTexturesConfig

	activeRenders  atomic.Int32
	totalRendered  atomic.Int64
	totalFailed    atomic.Int64
	currentRenders sync.Map // key -> start time

	queuedRenders atomic.Int32
	queuedKeys    sync.Map // key -> queue time
}

// Status reports the on-demand generation state.
type Status struct {
	ActiveRenders int      `json:"active_renders"`
	TotalRendered int64    `json:"total_rendered"`
	TotalFailed   int64    `json:"total_failed"`
	Current       []string `json:"current"`
	MaxConcurrent int      `json:"max_concurrent"`
	QueuedRenders int      `json:"queued_renders"`
	Queued        []string `json:"queued"`
}

func NewOnDemandTextures(cfg OnDemandTexturesConfig, logger *slog.Logger) (*OnDemandTextures, error) {
	if cfg.CacheDir == "" {
		cfg.CacheDir = "./textures"
	}
	if cfg.Defaults == (texture.Params{}) {
		cfg.Defaults = texture.DefaultParams()
	}
	if cfg.MaxConcurrentGenerations <= 0 {
		cfg.MaxConcurrentGenerations = 1
	}
	if cfg.MaxResolution <= 0 {
		cfg.MaxResolution = DefaultMaxResolution
	}
	if cfg.GenerationTimeout <= 0 {
		cfg.GenerationTimeout = time.Minute
	}
	if cfg.CacheControl == "" {
		cfg.CacheControl = "public, max-age=86400"
	}
	if _, err := imageio.ParsePNGCompression(cfg.PNGCompression); err != nil {
		return nil, err
	}
	if err := cfg.Defaults.Validate(); err != nil {
		return nil, fmt.Errorf("invalid default params: %w", err)
	}

	return &OnDemandTextures{
		cfg:    cfg,
		logger: logger,
		sem:    make(chan struct{}, cfg.MaxConcurrentGenerations),
	}, nil
}

// Status returns a snapshot of the generation counters.
func (t *OnDemandTextures) Status() Status {
	return Status{
		ActiveRenders: int(t.activeRenders.Load()),
		TotalRendered: t.totalRendered.Load(),
		TotalFailed:   t.totalFailed.Load(),
		Current:       sortedKeys(&t.currentRenders),
		MaxConcurrent: t.cfg.MaxConcurrentGenerations,
		QueuedRenders: int(t.queuedRenders.Load()),
		Queued:        sortedKeys(&t.queuedKeys),
	}
}

// StatusHandler serves Status as JSON.
func (t *OnDemandTextures) StatusHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Cache-Control", "no-store")

		if err := json.NewEncoder(w).Encode(t.Status()); err != nil {
			t.log().Error("failed to encode status", "error", err)
		}
	})
}

func (t *OnDemandTextures) Handler() http.Handler {
	return http.HandlerFunc(t.serveTexture)
}

func (t *OnDemandTextures) serveTexture(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name, format, ok := parseTexturePath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}

	params, err := paramsFromQuery(t.cfg.Defaults, r.URL.Query())
	if err == nil {
		err = params.ValidateRanges()
	}
	if err == nil && (params.Width > t.cfg.MaxResolution || params.Height > t.cfg.MaxResolution) {
		err = fmt.Errorf("%w: resolution %dx%d exceeds %d", texture.ErrInvalidParameter, params.Width, params.Height, t.cfg.MaxResolution)
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	gen, err := t.getGenerator(format)
	if err != nil {
		t.log().Error("failed to init generator", "error", err)
		http.Error(w, "failed to init generator", http.StatusInternalServerError)
		return
	}

	key := params.Key()
	fullPath := gen.Path(key)

	w.Header().Set("Cache-Control", t.cfg.CacheControl)
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("X-Texture-Key", key)

	if !t.cfg.DisableCache && fileExists(fullPath) {
		http.ServeFile(w, r, fullPath)
		return
	}

	mu := t.getLock(key + format.Ext())
	mu.Lock()
	defer mu.Unlock()

	if !t.cfg.DisableCache && fileExists(fullPath) {
		http.ServeFile(w, r, fullPath)
		return
	}

	t.queuedRenders.Add(1)
	t.queuedKeys.Store(key, time.Now())
	select {
	case t.sem <- struct{}{}:
		t.queuedRenders.Add(-1)
		t.queuedKeys.Delete(key)
	case <-r.Context().Done():
		t.queuedRenders.Add(-1)
		t.queuedKeys.Delete(key)
		http.Error(w, "request cancelled", http.StatusRequestTimeout)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), t.cfg.GenerationTimeout)
	defer cancel()

	start := time.Now()
	_, err = t.render(ctx, gen, worker.Task{Name: key, Params: params, Force: t.cfg.DisableCache})
	if err != nil {
		t.totalFailed.Add(1)
		t.log().Error("failed to generate texture", "name", name, "key", key, "error", err)
		status := http.StatusInternalServerError
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		http.Error(w, fmt.Sprintf("failed to generate texture %s: %v", name, err), status)
		return
	}
	t.totalRendered.Add(1)
	t.log().Info("texture generated on-demand", "name", name, "key", key, "ms", time.Since(start).Milliseconds())

	http.ServeFile(w, r, fullPath)
}

// render runs one generation while holding a semaphore slot. Synthesis is
// not interruptible, so on timeout the caller returns early and the slot is
// released when the render finishes.
func (t *OnDemandTextures) render(ctx context.Context, gen *pipeline.Generator, task worker.Task) (string, error) {
	type result struct {
		path string
		err  error
	}
	done := make(chan result, 1)

	t.activeRenders.Add(1)
	t.currentRenders.Store(task.Name, time.Now())
	go func() {
		defer func() {
			t.activeRenders.Add(-1)
			t.currentRenders.Delete(task.Name)
			<-t.sem
		}()
		p, err := gen.Generate(ctx, task)
		done <- result{p, err}
	}()

	select {
	case res := <-done:
		return res.path, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (t *OnDemandTextures) getGenerator(format imageio.Format) (*pipeline.Generator, error) {
	if v, ok := t.gens.Load(format); ok {
		return v.(*pipeline.Generator), nil
	}

	g, err := pipeline.NewGenerator(t.cfg.CacheDir, t.logger, pipeline.GeneratorOptions{
		Format:         format,
		PNGCompression: t.cfg.PNGCompression,
		Workers:        t.cfg.Workers,
	})
	if err != nil {
		return nil, err
	}

	actual, _ := t.gens.LoadOrStore(format, g)
	return actual.(*pipeline.Generator), nil
}

func (t *OnDemandTextures) getLock(key string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(key))
	return &t.locks[h.Sum32()%lockStripes]
}

func (t *OnDemandTextures) log() *slog.Logger {
	if t.logger != nil {
		return t.logger
	}
	return slog.Default()
}

// parseTexturePath accepts /textures/<name>.<png|bmp|tiff|tif>.
func parseTexturePath(requestPath string) (string, imageio.Format, bool) {
	if !strings.HasPrefix(requestPath, "/textures/") {
		return "", "", false
	}
	base := path.Base(requestPath)
	ext := path.Ext(base)
	name := strings.TrimSuffix(base, ext)
	if ext == "" || name == "" {
		return "", "", false
	}
	format, err := imageio.ParseFormat(ext)
	if err != nil {
		return "", "", false
	}
	return name, format, true
}

// paramsFromQuery overrides defaults with the query parameters present.
func paramsFromQuery(defaults texture.Params, q url.Values) (texture.Params, error) {
	p := defaults

	ints := map[string]*int{"width": &p.Width, "height": &p.Height, "octaves": &p.Octaves}
	floats := map[string]*float64{
		"scale": &p.Scale, "persistence": &p.Persistence,
		"lacunarity": &p.Lacunarity, "power": &p.Power,
	}

	for name, dst := range ints {
		if s := q.Get(name); s != "" {
			v, err := strconv.Atoi(s)
			if err != nil {
				return p, fmt.Errorf("%w: %s=%q", texture.ErrInvalidParameter, name, s)
			}
			*dst = v
		}
	}
	for name, dst := range floats {
		if s := q.Get(name); s != "" {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return p, fmt.Errorf("%w: %s=%q", texture.ErrInvalidParameter, name, s)
			}
			*dst = v
		}
	}
	if s := q.Get("seed"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return p, fmt.Errorf("%w: seed=%q", texture.ErrInvalidParameter, s)
		}
		p.Seed = v
	}
	if s := q.Get("inverted"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			return p, fmt.Errorf("%w: inverted=%q", texture.ErrInvalidParameter, s)
		}
		p.Inverted = v
	}
	if s := q.Get("backend"); s != "" {
		p.Backend = noise.Backend(strings.ToLower(s))
	}
	if s := q.Get("seed_mode"); s != "" {
		p.SeedMode = texture.SeedMode(strings.ToLower(s))
	}
	return p, nil
}

func fileExists(p string) bool {
	st, err := os.Stat(p)
	if err != nil {
		return false
	}
	return !st.IsDir()
}

func sortedKeys(m *sync.Map) []string {
	var keys []string
	m.Range(func(k, _ any) bool {
		keys = append(keys, k.(string))
		return true
	})
	sort.Strings(keys)
	return keys
}
