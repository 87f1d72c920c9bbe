package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/escalopa/arud-bot/internal/analysis"
	"github.com/escalopa/arud-bot/internal/domain"
	"github.com/escalopa/arud-bot/internal/session"
)

const (
	languageKeyPrefix = "lang:"
	saveTimeout       = 5 * time.Second
)

// Options configures an AnalysisService
type Options struct {
	// SessionKey is the base key of the last session; per-user sessions append ":<id>"
	SessionKey      string
	Normalize       bool
	DefaultLanguage domain.Language
	Logger          *zap.Logger
}

// AnalysisService handles the business logic shared by the bot and the CLI
type AnalysisService struct {
	analyzer    domain.AnalyzerPort
	store       domain.Store
	cache       *session.Cache
	logger      *zap.Logger
	sessionKey  string
	normalize   bool
	defaultLang domain.Language

	mu       sync.Mutex
	inFlight map[string]struct{}
	pending  map[string]*pendingSave
	saves    sync.WaitGroup
}

// pendingSave is the write queue of one key. next is the session still to be
// written; latest is the newest session, kept until it has been persisted.
type pendingSave struct {
	next   *session.Session
	latest session.Session
}

func NewAnalysisService(analyzer domain.AnalyzerPort, store domain.Store, opts Options) *AnalysisService {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	key := opts.SessionKey
	if key == "" {
		key = session.DefaultKey
	}
	lang := opts.DefaultLanguage
	if _, ok := domain.ParseLanguage(string(lang)); !ok {
		lang = domain.LangEnglish
	}

	return &AnalysisService{
		analyzer:    analyzer,
		store:       store,
		cache:       session.NewCache(store, logger),
		logger:      logger.Named("service"),
		sessionKey:  key,
		normalize:   opts.Normalize,
		defaultLang: lang,
		inFlight:    make(map[string]struct{}),
		pending:     make(map[string]*pendingSave),
	}
}

// Result is one successful analysis together with the poem that produced it
type Result struct {
	ID         string
	Poem       string
	Analysis   *domain.Analysis
	InputLines int
}

// View derives the presentation model; it is rebuilt on every call
func (r *Result) View() analysis.View {
	return analysis.NewView(r.Analysis, r.InputLines)
}

// Summary derives the aggregate statistics of the result
func (r *Result) Summary() analysis.Summary {
	return analysis.Summarize(r.Analysis.Verses)
}

// SplitVerses returns the trimmed non-blank lines of poem.
// It rejects empty input and more than domain.MaxVerses lines.
func SplitVerses(poem string, normalize bool) ([]string, error) {
	var verses []string
	for _, line := range strings.Split(poem, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if normalize {
			line = norm.NFC.String(line)
		}
		verses = append(verses, line)
	}

	if len(verses) == 0 {
		return nil, domain.ErrEmptyInput
	}
	if len(verses) > domain.MaxVerses {
		return nil, &domain.TooManyVersesError{Count: len(verses)}
	}
	return verses, nil
}

// CountLines returns the number of non-blank lines in poem
func CountLines(poem string) int {
	n := 0
	for _, line := range strings.Split(poem, "\n") {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}

// Analyze validates poem, submits it and saves the session on success.
// A second call for the same session while one is outstanding fails with
// domain.ErrAnalysisInProgress.
func (s *AnalysisService) Analyze(ctx context.Context, sessionID, poem string) (*Result, error) {
	verses, err := SplitVerses(poem, s.normalize)
	if err != nil {
		return nil, err
	}

	if !s.acquire(sessionID) {
		return nil, domain.ErrAnalysisInProgress
	}
	defer s.release(sessionID)

	start := time.Now()
	a, err := s.analyzer.Analyze(ctx, verses)
	if err != nil {
		s.logger.Warn("analysis failed",
			zap.String("session", sessionID),
			zap.Int("verses", len(verses)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("analyze: %w", err)
	}

	s.logger.Info("analysis completed",
		zap.String("session", sessionID),
		zap.Int("verses", len(verses)),
		zap.String("meter", analysis.ResolveMeter(a.Meter, a.MeterAr).Primary),
		zap.Duration("elapsed", time.Since(start)),
	)

	id := uuid.NewString()
	s.saveAsync(sessionID, session.Session{ID: id, Poem: poem, Results: a.Raw})

	return &Result{ID: id, Poem: poem, Analysis: a, InputLines: CountLines(poem)}, nil
}

// Last restores the most recent session, reporting false when there is none.
// A session whose write is still queued is served from memory.
func (s *AnalysisService) Last(ctx context.Context, sessionID string) (*Result, bool) {
	key := s.key(sessionID)

	s.mu.Lock()
	q, queued := s.pending[key]
	var latest session.Session
	if queued {
		latest = q.latest
	}
	s.mu.Unlock()

	if queued {
		if a, err := domain.DecodeAnalysis(latest.Results); err == nil {
			return newResult(latest, a), true
		}
	}

	sess, a, ok := s.cache.Restore(ctx, key)
	if !ok {
		return nil, false
	}
	return newResult(sess, a), true
}

func newResult(sess session.Session, a *domain.Analysis) *Result {
	return &Result{ID: sess.ID, Poem: sess.Poem, Analysis: a, InputLines: CountLines(sess.Poem)}
}

// BahrInfo resolves a meter alias and asks the service for its metadata
func (s *AnalysisService) BahrInfo(ctx context.Context, name string) (*domain.BahrInfo, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrEmptyInput
	}
	if m, ok := domain.LookupMeter(name); ok {
		name = m.Arabic
	}
	info, err := s.analyzer.BahrInfo(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("bahr info: %w", err)
	}
	return info, nil
}

// Validate checks a single verse with the service
func (s *AnalysisService) Validate(ctx context.Context, verse string) (bool, error) {
	verse = strings.TrimSpace(verse)
	if verse == "" {
		return false, domain.ErrEmptyInput
	}
	if s.normalize {
		verse = norm.NFC.String(verse)
	}
	ok, err := s.analyzer.Validate(ctx, verse)
	if err != nil {
		return false, fmt.Errorf("validate: %w", err)
	}
	return ok, nil
}

// Status reports the service liveness
func (s *AnalysisService) Status(ctx context.Context) (*domain.ServiceStatus, error) {
	status, err := s.analyzer.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}
	return status, nil
}

// Language returns the stored language of a user, or the default
func (s *AnalysisService) Language(ctx context.Context, userID string) domain.Language {
	data, err := s.store.Get(ctx, languageKeyPrefix+userID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("load language failed", zap.String("user", userID), zap.Error(err))
		}
		return s.defaultLang
	}
	if lang, ok := domain.ParseLanguage(string(data)); ok {
		return lang
	}
	return s.defaultLang
}

// SetLanguage stores the language of a user
func (s *AnalysisService) SetLanguage(ctx context.Context, userID string, lang domain.Language) error {
	if _, ok := domain.ParseLanguage(string(lang)); !ok {
		return fmt.Errorf("unsupported language %q", lang)
	}
	if err := s.store.Put(ctx, languageKeyPrefix+userID, []byte(lang)); err != nil {
		return fmt.Errorf("set language: %w", err)
	}
	return nil
}

// Close waits for pending session writes
func (s *AnalysisService) Close() {
	s.saves.Wait()
}

func (s *AnalysisService) key(sessionID string) string {
	if sessionID == "" {
		return s.sessionKey
	}
	return s.sessionKey + ":" + sessionID
}

func (s *AnalysisService) acquire(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[sessionID]; busy {
		return false
	}
	s.inFlight[sessionID] = struct{}{}
	return true
}

func (s *AnalysisService) release(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, sessionID)
}

// saveAsync persists the session without blocking or failing the analysis.
// Writes to one key run on a single goroutine in submission order; a session
// superseded before its turn is skipped.
func (s *AnalysisService) saveAsync(sessionID string, sess session.Session) {
	key := s.key(sessionID)

	s.mu.Lock()
	q, running := s.pending[key]
	if !running {
		q = &pendingSave{}
		s.pending[key] = q
		s.saves.Add(1)
	}
	q.next = &sess
	q.latest = sess
	s.mu.Unlock()

	if !running {
		go s.drainSaves(key, q)
	}
}

func (s *AnalysisService) drainSaves(key string, q *pendingSave) {
	defer s.saves.Done()
	for {
		s.mu.Lock()
		next := q.next
		q.next = nil
		if next == nil {
			delete(s.pending, key)
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		_ = s.cache.Save(ctx, key, *next)
		cancel()
	}
}
