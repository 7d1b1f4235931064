package gallery

// DefaultTriggerMargin is the look-ahead in rows, the terminal counterpart of
// a 200px root margin.
const DefaultTriggerMargin = 2

// Trigger decides when the sentinel row after the last displayed item is close
// enough to the viewport to request the next batch.
type Trigger struct {
	Margin int // rows below the viewport that still count as visible
}

// Visible reports whether the sentinel (row index displayed) lies within
// Margin rows past lastVisibleRow, the last row index shown in the viewport.
func (t Trigger) Visible(lastVisibleRow, displayed int) bool {
	margin := t.Margin
	if margin < 0 {
		margin = 0
	}
	return displayed <= lastVisibleRow+margin
}

// ShouldFire reports whether a load should be requested now. It never fires
// outside Idle, so Loading, Error and Exhausted stay quiet.
func (t Trigger) ShouldFire(state State, lastVisibleRow, displayed int) bool {
	return state == StateIdle && t.Visible(lastVisibleRow, displayed)
}
