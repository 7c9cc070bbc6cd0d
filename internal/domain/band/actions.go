package band

import "github.com/elockenvitz/tesseract/internal/domain/model"

func act(kind model.ActionKind, label string) model.Action {
	return model.Action{Kind: kind, Label: label}
}

func attentionActions(st model.SourceType, typ model.ItemType) (model.Action, []model.Action) {
	snooze := act(model.ActionSnooze, "Snooze")
	dismiss := act(model.ActionDismiss, "Dismiss")

	switch st {
	case model.SourceTradeItem:
		return act(model.ActionApprove, "Approve"), []model.Action{act(model.ActionReject, "Reject"), act(model.ActionDefer, "Defer")}
	case model.SourceDeliverable:
		return act(model.ActionMarkDone, "Mark done"), []model.Action{snooze, dismiss}
	case model.SourceProject:
		return act(model.ActionOpen, "Open project"), []model.Action{act(model.ActionAcknowledge, "Acknowledge"), snooze}
	case model.SourceSuggestion:
		return act(model.ActionReview, "Review"), []model.Action{dismiss}
	case model.SourceNotification:
		return act(model.ActionAcknowledge, "Mark read"), []model.Action{dismiss}
	case model.SourceNote:
		if typ == model.TypeThesis {
			return act(model.ActionUpdate, "Update thesis"), []model.Action{snooze, dismiss}
		}
		return act(model.ActionReview, "Review"), []model.Action{snooze, dismiss}
	}
	return act(model.ActionOpen, "Open"), []model.Action{dismiss}
}

func decisionActions(k model.DecisionItemKind) (model.Action, []model.Action) {
	switch k {
	case model.DecisionItemProposal:
		return act(model.ActionReview, "Review proposal"), []model.Action{
			act(model.ActionApprove, "Approve"), act(model.ActionReject, "Reject"), act(model.ActionDefer, "Defer"),
		}
	case model.DecisionItemExecution:
		return act(model.ActionMarkDone, "Mark executed"), []model.Action{act(model.ActionDefer, "Defer")}
	case model.DecisionItemSimulation:
		return act(model.ActionSimulate, "Run simulation"), []model.Action{act(model.ActionDefer, "Defer")}
	case model.DecisionItemThesisStale:
		return act(model.ActionUpdate, "Update thesis"), []model.Action{act(model.ActionSnooze, "Snooze")}
	case model.DecisionItemRatingChange:
		return act(model.ActionReview, "Review rating"), []model.Action{act(model.ActionAcknowledge, "Acknowledge")}
	}
	return act(model.ActionOpen, "Open"), nil
}
