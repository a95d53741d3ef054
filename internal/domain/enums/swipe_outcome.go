package enums

type SwipeOutcome string

const (
	SwipeOutcomeLikeRecorded      SwipeOutcome = "like_recorded"
	SwipeOutcomeSuperLikeRecorded SwipeOutcome = "superlike_recorded"
	SwipeOutcomePassRecorded      SwipeOutcome = "pass_recorded"
	SwipeOutcomeMatchCreated      SwipeOutcome = "match_created"
	SwipeOutcomeLimitReached      SwipeOutcome = "limit_reached"
	SwipeOutcomeAlreadyProcessed  SwipeOutcome = "user_already_processed"
	SwipeOutcomeUserBlocked       SwipeOutcome = "user_blocked"
	SwipeOutcomeUserNotFound      SwipeOutcome = "user_not_found"

	SwipeOutcomeSwipeUndone        SwipeOutcome = "swipe_undone"
	SwipeOutcomeNoRecentPassToUndo SwipeOutcome = "no_recent_pass_to_undo"
)

func (o SwipeOutcome) Succeeded() bool {
	switch o {
	case SwipeOutcomeLikeRecorded, SwipeOutcomeSuperLikeRecorded, SwipeOutcomePassRecorded, SwipeOutcomeMatchCreated, SwipeOutcomeSwipeUndone:
		return true
	default:
		return false
	}
}
