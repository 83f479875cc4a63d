package service

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/contract_scheduler/internal/model"
	"github.com/Freeeeeet/contract_scheduler/internal/recurrence"
	"go.uber.org/zap"
)

// maxChainDepth защита от зацикленных ссылок при поиске корня
const maxChainDepth = 32

// SubstitutionService создаёт контракт-замену на период отсутствия учителя.
// Исходный контракт никогда не меняется.
type SubstitutionService struct {
	contracts   *ContractService
	suggestions *SuggestionService
	policy      model.SubstitutionPolicy
	logger      *zap.Logger
}

func NewSubstitutionService(
	contracts *ContractService,
	suggestions *SuggestionService,
	policy model.SubstitutionPolicy,
	logger *zap.Logger,
) *SubstitutionService {
	return &SubstitutionService{
		contracts:   contracts,
		suggestions: suggestions,
		policy:      policy,
		logger:      logger,
	}
}

// Plan находит занятия контракта внутри окна, расширяет диапазон до целых недель
// (понедельник первой, пятница последней) и подбирает кандидатов на этот диапазон
func (s *SubstitutionService) Plan(ctx context.Context, parentID int64, window model.DateRange) (*model.SubstitutionPlan, error) {
	if window.Start.IsZero() || window.End.IsZero() {
		return nil, model.NewValidationError("window", "start and end are required")
	}
	if window.End.Before(window.Start) {
		return nil, model.NewValidationError("window", "end must not be before start")
	}

	parent, err := s.contracts.Get(ctx, parentID)
	if err != nil {
		return nil, err
	}
	parent, err = s.resolveParent(ctx, parent)
	if err != nil {
		return nil, err
	}

	affected := recurrence.Between(seriesOf(parent), recurrence.DayOf(window.Start), recurrence.DayOf(window.End))
	if len(affected) == 0 {
		return nil, model.NewValidationError("window", fmt.Sprintf("contract %d has no lessons in the window", parent.ID))
	}

	from := affected[0].Monday()
	to := affected[len(affected)-1].Friday()

	suggestions, err := s.suggestions.Suggest(ctx, SuggestionRequest{
		CustomerIDs:        parent.CustomerIDs,
		SubjectID:          parent.SubjectID,
		IntervalWeeks:      parent.IntervalWeeks,
		StartDate:          from.Time(),
		EndDate:            timePtr(to.Time()),
		ExcludeContractIDs: []int64{parent.ID},
	})
	if err != nil {
		return nil, fmt.Errorf("suggest substitutes: %w", err)
	}

	plan := &model.SubstitutionPlan{
		Parent:      parent,
		From:        from.Time(),
		To:          to.Time(),
		Suggestions: suggestions,
	}
	for _, day := range affected {
		plan.AffectedDates = append(plan.AffectedDates, day.Time())
	}
	return plan, nil
}

// Create пересчитывает план, проверяет что выбор лежит внутри предложенного окна
// и создаёт дочерний контракт (pending, либо accepted при Confirm)
func (s *SubstitutionService) Create(ctx context.Context, parentID int64, window model.DateRange, choice model.SubstitutionChoice) (*model.Contract, error) {
	plan, err := s.Plan(ctx, parentID, window)
	if err != nil {
		return nil, err
	}

	if !choiceFits(plan.Suggestions, choice) {
		return nil, model.NewValidationError("choice", "selected teacher and time are not among the suggested windows")
	}

	state := model.ContractStatePending
	if choice.Confirm {
		state = model.ContractStateAccepted
	}

	parent := plan.Parent
	start := recurrence.OnOrAfter(recurrence.DayOf(plan.From), choice.DayOfWeek)
	end := plan.To

	child, err := s.contracts.Create(ctx, ContractInput{
		SubjectID:     parent.SubjectID,
		CustomerIDs:   parent.CustomerIDs,
		TeacherID:     choice.TeacherID,
		State:         state,
		Type:          parent.Type,
		StartDate:     start.Time(),
		EndDate:       &end,
		IntervalWeeks: parent.IntervalWeeks,
		StartTime:     choice.Start,
		EndTime:       choice.End,
		ParentID:      &parent.ID,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Substitution created",
		zap.Int64("parent_contract_id", parent.ID),
		zap.Int64("contract_id", child.ID),
		zap.Bool("confirmed", choice.Confirm))

	return child, nil
}

// resolveParent применяет политику для замены замены
func (s *SubstitutionService) resolveParent(ctx context.Context, contract *model.Contract) (*model.Contract, error) {
	if contract.ParentID == nil {
		return contract, nil
	}
	if s.policy != model.SubstitutionRoot {
		return nil, model.NewValidationError("parent_contract_id",
			fmt.Sprintf("contract %d is itself a substitute", contract.ID))
	}

	current := contract
	for depth := 0; current.ParentID != nil; depth++ {
		if depth >= maxChainDepth {
			return nil, model.NewValidationError("parent_contract_id", "contract chain is too deep")
		}
		parent, err := s.contracts.Get(ctx, *current.ParentID)
		if err != nil {
			return nil, err
		}
		current = parent
	}

	s.logger.Debug("Substitution resolved to root contract",
		zap.Int64("requested_contract_id", contract.ID),
		zap.Int64("root_contract_id", current.ID))

	return current, nil
}

func choiceFits(suggestions []model.Suggestion, choice model.SubstitutionChoice) bool {
	for i := range suggestions {
		sg := &suggestions[i]
		sameCandidate := (choice.TeacherID == nil && sg.IsUnassigned()) ||
			(choice.TeacherID != nil && sg.TeacherID != nil && *sg.TeacherID == *choice.TeacherID)
		if !sameCandidate {
			continue
		}
		for _, slot := range sg.Slots {
			if slot.Fits(choice.DayOfWeek, choice.Start, choice.End) {
				return true
			}
		}
	}
	return false
}
