// Package recommend is the inbound entry point: it builds prompts, sends them
// through the dispatcher, parses the free-text answers, and records each
// consultation.
package recommend

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/meditrek/internal/dispatch"
	"github.com/sells-group/meditrek/internal/model"
	"github.com/sells-group/meditrek/internal/parse"
	"github.com/sells-group/meditrek/internal/prompt"
	"github.com/sells-group/meditrek/internal/store"
)

// ErrNoSymptoms is returned when a query carries no usable symptom.
var ErrNoSymptoms = eris.New("recommend: at least one symptom is required")

// saveTimeout bounds the best-effort history write.
const saveTimeout = 5 * time.Second

// Sender is the dispatcher contract the service depends on.
type Sender interface {
	Send(ctx context.Context, prompt string, opts dispatch.Options) (string, error)
}

// Config sets the item caps and per-query dispatch options.
type Config struct {
	MedicationLimit   int
	CombinedListLimit int
	SplitListLimit    int
	Dispatch          dispatch.Options
}

func (c Config) withDefaults() Config {
	if c.MedicationLimit <= 0 {
		c.MedicationLimit = parse.DefaultMedicationLimit
	}
	if c.CombinedListLimit <= 0 {
		c.CombinedListLimit = parse.DefaultCombinedListLimit
	}
	if c.SplitListLimit <= 0 {
		c.SplitListLimit = parse.DefaultSplitListLimit
	}
	return c
}

// Service answers recommendation queries. A nil store disables history.
type Service struct {
	sender  Sender
	store   store.Store
	cfg     Config
	nowFunc func() time.Time
}

// New creates a Service.
func New(sender Sender, st store.Store, cfg Config) *Service {
	return &Service{
		sender:  sender,
		store:   st,
		cfg:     cfg.withDefaults(),
		nowFunc: time.Now,
	}
}

// GetMedicationRecommendations asks for ranked over-the-counter medications.
// Backend failures are returned as errors; an unparseable answer yields an
// empty slice.
func (s *Service) GetMedicationRecommendations(ctx context.Context, profile model.PatientProfile) ([]model.MedicationRecommendation, error) {
	profile = profile.Normalize()
	if len(profile.Symptoms) == 0 {
		return nil, ErrNoSymptoms
	}

	start := s.nowFunc()
	text, err := s.sender.Send(ctx, prompt.Medications(profile, s.cfg.MedicationLimit), s.cfg.Dispatch)
	if err != nil {
		s.record(ctx, model.QueryModeMedications, profile, model.CombinedRecommendation{}, start, err)
		return nil, err
	}

	meds := parse.ParseMedications(text, s.cfg.MedicationLimit)
	s.record(ctx, model.QueryModeMedications, profile, model.CombinedRecommendation{
		Medications: meds,
		Management:  model.EmptyManagementLists(),
	}, start, nil)
	return meds, nil
}

// GetSymptomManagementLists asks for what to do and what to avoid.
func (s *Service) GetSymptomManagementLists(ctx context.Context, symptoms []string) (model.ManagementLists, error) {
	profile := model.PatientProfile{Symptoms: symptoms}.Normalize()
	if len(profile.Symptoms) == 0 {
		return model.EmptyManagementLists(), ErrNoSymptoms
	}

	start := s.nowFunc()
	text, err := s.sender.Send(ctx, prompt.Management(profile.Symptoms, s.cfg.SplitListLimit), s.cfg.Dispatch)
	if err != nil {
		s.record(ctx, model.QueryModeManagement, profile, model.CombinedRecommendation{}, start, err)
		return model.EmptyManagementLists(), err
	}

	lists := parse.ParseManagementLists(text, s.cfg.SplitListLimit)
	s.record(ctx, model.QueryModeManagement, profile, model.CombinedRecommendation{
		Medications: []model.MedicationRecommendation{},
		Management:  lists,
	}, start, nil)
	return lists, nil
}

// GetCombinedRecommendations asks for medications and management lists in a
// single backend call.
func (s *Service) GetCombinedRecommendations(ctx context.Context, profile model.PatientProfile) (model.CombinedRecommendation, error) {
	empty := model.CombinedRecommendation{
		Medications: []model.MedicationRecommendation{},
		Management:  model.EmptyManagementLists(),
	}
	profile = profile.Normalize()
	if len(profile.Symptoms) == 0 {
		return empty, ErrNoSymptoms
	}

	start := s.nowFunc()
	text, err := s.sender.Send(ctx, prompt.Combined(profile, s.cfg.MedicationLimit, s.cfg.CombinedListLimit), s.cfg.Dispatch)
	if err != nil {
		s.record(ctx, model.QueryModeCombined, profile, empty, start, err)
		return empty, err
	}

	result, err := parse.ParseCombined(text, s.cfg.MedicationLimit, s.cfg.CombinedListLimit)
	if err != nil {
		// Parsing failures surface as an empty result, not an error.
		zap.L().Debug("recommend: combined response unparsed", zap.Error(err))
	}
	s.record(ctx, model.QueryModeCombined, profile, result, start, nil)
	return result, nil
}

// GetSplitRecommendations issues the medication and management queries one
// after the other and merges them. A failure of the first call stops the
// second.
func (s *Service) GetSplitRecommendations(ctx context.Context, profile model.PatientProfile) (model.CombinedRecommendation, error) {
	out := model.CombinedRecommendation{
		Medications: []model.MedicationRecommendation{},
		Management:  model.EmptyManagementLists(),
	}

	meds, err := s.GetMedicationRecommendations(ctx, profile)
	if err != nil {
		return out, err
	}
	out.Medications = meds

	lists, err := s.GetSymptomManagementLists(ctx, profile.Symptoms)
	if err != nil {
		return out, err
	}
	out.Management = lists
	return out, nil
}

// record stores the consultation. Store errors are logged and dropped.
func (s *Service) record(ctx context.Context, mode model.QueryMode, profile model.PatientProfile, result model.CombinedRecommendation, start time.Time, queryErr error) {
	c := &model.Consultation{
		Mode:       mode,
		Profile:    profile,
		Result:     result,
		Status:     Status(mode, result, queryErr),
		DurationMs: s.nowFunc().Sub(start).Milliseconds(),
		CreatedAt:  start.UTC(),
	}
	if queryErr != nil {
		c.Error = queryErr.Error()
	}

	log := zap.L().With(
		zap.String("mode", string(mode)),
		zap.String("status", string(c.Status)),
		zap.Int64("duration_ms", c.DurationMs),
	)
	log.Info("recommend: consultation finished",
		zap.Int("medications", len(result.Medications)),
		zap.Int("to_do", len(result.Management.ToDoList)),
		zap.Int("do_not", len(result.Management.DoNotList)),
	)

	if s.store == nil {
		return
	}
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
	defer cancel()
	if err := s.store.SaveConsultation(saveCtx, c); err != nil {
		log.Warn("recommend: failed to save consultation", zap.Error(err))
	}
}

// Status grades a consultation by how much of the expected output was
// extracted.
func Status(mode model.QueryMode, result model.CombinedRecommendation, queryErr error) model.ConsultationStatus {
	if queryErr != nil {
		return model.ConsultationFailed
	}
	hasMeds := len(result.Medications) > 0
	hasLists := len(result.Management.ToDoList) > 0 && len(result.Management.DoNotList) > 0

	var complete bool
	switch mode {
	case model.QueryModeMedications:
		complete = hasMeds
	case model.QueryModeManagement:
		complete = hasLists
	default:
		complete = hasMeds && hasLists
	}
	if complete {
		return model.ConsultationComplete
	}
	return model.ConsultationPartial
}
