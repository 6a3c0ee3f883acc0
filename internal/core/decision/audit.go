package decision

import "github.com/kirillkom/claim-assessor/internal/core/domain"

// BuildAuditLog lists every triggered outcome with an effect other than
// NoEffect, by stage declaration order and then catalog order.
func BuildAuditLog(results []domain.StageResult) []domain.AuditEntry {
	folded := Fold(results)
	log := make([]domain.AuditEntry, 0, len(folded.Outcomes))
	for _, o := range folded.Outcomes {
		if o.Effect == domain.EffectNoEffect {
			continue
		}
		log = append(log, domain.AuditEntry{
			RuleID:         o.RuleID,
			DecisionEffect: o.Effect,
			Note:           o.Note,
		})
	}
	return log
}
