package service

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/Freeeeeet/contract_scheduler/internal/clock"
	"github.com/Freeeeeet/contract_scheduler/internal/directory"
	"github.com/Freeeeeet/contract_scheduler/internal/model"
	"github.com/Freeeeeet/contract_scheduler/internal/recurrence"
	"github.com/Freeeeeet/contract_scheduler/internal/repository"
	"go.uber.org/zap"
)

// BusinessHours границы рабочего дня, в которых ищутся свободные окна
type BusinessHours struct {
	Start model.TimeOfDay
	End   model.TimeOfDay
}

// DefaultBusinessHours 08:00–20:00
var DefaultBusinessHours = BusinessHours{Start: model.NewTimeOfDay(8, 0), End: model.NewTimeOfDay(20, 0)}

// SuggestionRequest параметры будущего контракта
type SuggestionRequest struct {
	CustomerIDs        []int64
	SubjectID          int64
	IntervalWeeks      int
	StartDate          time.Time
	EndDate            *time.Time
	ExcludeContractIDs []int64
}

// SuggestionService подбирает учителей и свободные еженедельные окна.
// Результат не сохраняется и пересчитывается на каждый запрос.
type SuggestionService struct {
	store    repository.Store
	dir      directory.Directory
	detector *recurrence.Detector
	hours    BusinessHours
	logger   *zap.Logger
}

func NewSuggestionService(
	store repository.Store,
	dir directory.Directory,
	detector *recurrence.Detector,
	hours BusinessHours,
	logger *zap.Logger,
) *SuggestionService {
	return &SuggestionService{
		store:    store,
		dir:      dir,
		detector: detector,
		hours:    hours,
		logger:   logger,
	}
}

// busy занятый интервал времени в минутах, [start, end)
type busy struct {
	contractID int64
	start      int
	end        int
}

// weekdayLoad разбор одного дня недели: жёсткие исключения и мягкие предупреждения
type weekdayLoad struct {
	hard []busy
	soft []busy
}

// prospect будущий контракт, разложенный по активным дням недели
type prospect struct {
	from    recurrence.Day
	to      recurrence.Day // конец диапазона или горизонт для бессрочного
	series  map[time.Weekday]recurrence.Series
	weekday []time.Weekday
}

// Suggest возвращает кандидатов, отсортированных по имени; "unassigned" всегда последний
func (s *SuggestionService) Suggest(ctx context.Context, req SuggestionRequest) ([]model.Suggestion, error) {
	if err := s.validate(ctx, req); err != nil {
		return nil, err
	}

	p := s.prospectOf(req)

	// для бессрочного запроса берём все будущие контракты, горизонт применит детектор
	var activeTo *time.Time
	if req.EndDate != nil {
		activeTo = timePtr(p.to.Time())
	}

	teachers, err := s.dir.QualifiedTeachers(ctx, req.SubjectID)
	if err != nil {
		return nil, fmt.Errorf("find qualified teachers: %w", err)
	}

	customerContracts, err := s.store.Contracts().Find(ctx, repository.ContractFilter{
		CustomerIDs: req.CustomerIDs,
		States:      model.OccupyingStates,
		ActiveFrom:  timePtr(p.from.Time()),
		ActiveTo:    activeTo,
		ExcludeIDs:  req.ExcludeContractIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("find customer contracts: %w", err)
	}
	customerSoft := s.customerAnnotations(p, customerContracts)

	teacherIDs := make([]int64, 0, len(teachers))
	for _, t := range teachers {
		teacherIDs = append(teacherIDs, t.ID)
	}
	leaves, err := loadLeaveIndex(ctx, s.store.Leaves(), teacherIDs, p.from, p.to)
	if err != nil {
		return nil, err
	}

	suggestions := make([]model.Suggestion, 0, len(teachers)+1)
	for _, teacher := range teachers {
		contracts, err := s.store.Contracts().Find(ctx, repository.ContractFilter{
			TeacherID:  &teacher.ID,
			States:     model.OccupyingStates,
			ActiveFrom: timePtr(p.from.Time()),
			ActiveTo:   activeTo,
			ExcludeIDs: req.ExcludeContractIDs,
		})
		if err != nil {
			return nil, fmt.Errorf("find teacher %d contracts: %w", teacher.ID, err)
		}

		var slots []model.SuggestedSlot
		for _, wd := range p.weekday {
			series := p.series[wd]
			if leaves.BlocksAny(teacher.ID, series) {
				continue
			}
			load := s.classify(series, contracts)
			load.soft = append(load.soft, customerSoft[wd]...)
			slots = append(slots, s.freeWindows(wd, load)...)
		}
		if len(slots) == 0 {
			continue
		}

		id := teacher.ID
		suggestions = append(suggestions, model.Suggestion{TeacherID: &id, TeacherName: teacher.Name, Slots: slots})
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		a, b := suggestions[i], suggestions[j]
		if a.TeacherName != b.TeacherName {
			return a.TeacherName < b.TeacherName
		}
		return *a.TeacherID < *b.TeacherID
	})

	unassigned := model.Suggestion{TeacherName: model.UnassignedTeacherName}
	for _, wd := range p.weekday {
		unassigned.Slots = append(unassigned.Slots, s.freeWindows(wd, weekdayLoad{soft: customerSoft[wd]})...)
	}
	suggestions = append(suggestions, unassigned)

	s.logger.Debug("Suggestions computed",
		zap.Int64("subject_id", req.SubjectID),
		zap.Int("qualified_teachers", len(teachers)),
		zap.Int("candidates", len(suggestions)))

	return suggestions, nil
}

func (s *SuggestionService) validate(ctx context.Context, req SuggestionRequest) error {
	if len(req.CustomerIDs) == 0 {
		return model.NewValidationError("customer_ids", "must not be empty")
	}
	if req.IntervalWeeks < 1 || req.IntervalWeeks > MaxIntervalWeeks {
		return model.NewValidationError("interval_weeks", fmt.Sprintf("must be between 1 and %d", MaxIntervalWeeks))
	}
	if req.StartDate.IsZero() {
		return model.NewValidationError("start_date", "is required")
	}
	if req.EndDate != nil && clock.DateOf(*req.EndDate).Before(clock.DateOf(req.StartDate)) {
		return model.NewValidationError("end_date", "must not be before start_date")
	}

	subject, err := s.dir.GetSubject(ctx, req.SubjectID)
	if err != nil {
		return fmt.Errorf("get subject: %w", err)
	}
	if subject == nil {
		return model.NewValidationError("subject_id", fmt.Sprintf("unknown subject %d", req.SubjectID))
	}
	return nil
}

// prospectOf строит серию будущего контракта для каждого дня Пн–Пт, на который
// попадает хотя бы одно занятие внутри запрошенного диапазона
func (s *SuggestionService) prospectOf(req SuggestionRequest) prospect {
	p := prospect{
		from:   recurrence.DayOf(req.StartDate),
		series: make(map[time.Weekday]recurrence.Series),
	}

	var until *recurrence.Day
	if req.EndDate != nil {
		end := recurrence.DayOf(*req.EndDate)
		until = &end
		p.to = end
	} else {
		p.to = p.from.AddDays(s.detector.HorizonDays())
	}

	for _, wd := range recurrence.Workdays {
		anchor := recurrence.OnOrAfter(p.from, wd)
		if anchor > p.to {
			continue
		}
		p.series[wd] = recurrence.Series{
			Anchor:        anchor,
			Until:         until,
			IntervalWeeks: req.IntervalWeeks,
		}
		p.weekday = append(p.weekday, wd)
	}
	return p
}

// classify делит контракты учителя на жёсткие исключения (есть общая дата) и
// мягкие предупреждения (тот же день недели и пересекающиеся диапазоны, но общей даты нет)
func (s *SuggestionService) classify(prospective recurrence.Series, contracts []*model.Contract) weekdayLoad {
	var load weekdayLoad
	for _, c := range contracts {
		existing := seriesOf(c)
		if existing.Weekday() != prospective.Weekday() {
			continue
		}
		slot := busy{contractID: c.ID, start: existing.Start, end: existing.End}

		if _, ok := s.detector.SharedDay(prospective, existing); ok {
			load.hard = append(load.hard, slot)
			continue
		}
		if _, ok := s.detector.Window(prospective, existing); ok {
			load.soft = append(load.soft, slot)
		}
	}
	return load
}

// customerAnnotations контракты тех же клиентов у любых учителей дают только предупреждения
func (s *SuggestionService) customerAnnotations(p prospect, contracts []*model.Contract) map[time.Weekday][]busy {
	out := make(map[time.Weekday][]busy)
	for _, c := range contracts {
		existing := seriesOf(c)
		prospective, ok := p.series[existing.Weekday()]
		if !ok {
			continue
		}
		if _, ok := s.detector.Window(prospective, existing); !ok {
			continue
		}
		out[existing.Weekday()] = append(out[existing.Weekday()], busy{contractID: c.ID, start: existing.Start, end: existing.End})
	}
	return out
}

// freeWindows вычитает жёсткие интервалы из рабочего дня и навешивает
// предупреждения на окна, с которыми они пересекаются по времени
func (s *SuggestionService) freeWindows(wd time.Weekday, load weekdayLoad) []model.SuggestedSlot {
	hard := slices.Clone(load.hard)
	sort.Slice(hard, func(i, j int) bool { return hard[i].start < hard[j].start })

	var windows [][2]int
	cursor := int(s.hours.Start)
	limit := int(s.hours.End)
	for _, h := range hard {
		if h.end <= cursor {
			continue
		}
		if h.start >= limit {
			break
		}
		if h.start > cursor {
			windows = append(windows, [2]int{cursor, h.start})
		}
		cursor = h.end
	}
	if cursor < limit {
		windows = append(windows, [2]int{cursor, limit})
	}

	slots := make([]model.SuggestedSlot, 0, len(windows))
	for _, w := range windows {
		slot := model.SuggestedSlot{
			DayOfWeek:          wd,
			Start:              model.TimeOfDay(w[0]),
			End:                model.TimeOfDay(w[1]),
			OverlapContractIDs: []int64{},
		}
		for _, soft := range load.soft {
			if soft.start < w[1] && w[0] < soft.end && !slices.Contains(slot.OverlapContractIDs, soft.contractID) {
				slot.OverlapContractIDs = append(slot.OverlapContractIDs, soft.contractID)
			}
		}
		slices.Sort(slot.OverlapContractIDs)
		slots = append(slots, slot)
	}
	return slots
}
