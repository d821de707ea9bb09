package enums

type SwipeAction string

const (
	SwipeActionPass      SwipeAction = "PASS"
	SwipeActionLike      SwipeAction = "LIKE"
	SwipeActionSuperLike SwipeAction = "SUPERLIKE"
)

// Positive reports whether the action counts toward a mutual match.
func (a SwipeAction) Positive() bool {
	return a == SwipeActionLike || a == SwipeActionSuperLike
}
