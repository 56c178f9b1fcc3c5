package engine

// HighScoreStore persists the single best score. Implementations absorb their
// own failures: Load returns 0 when nothing usable is stored and Save never
// reports an error.
type HighScoreStore interface {
	Load() int
	Save(score int)
}

// HighScoreKeeper holds the best score in memory and writes through to its
// store only when the score is beaten.
type HighScoreKeeper struct {
	store HighScoreStore
	value int
}

// NewHighScoreKeeper loads the stored value once. A nil store keeps the
// high score in memory only.
func NewHighScoreKeeper(store HighScoreStore) *HighScoreKeeper {
	k := &HighScoreKeeper{store: store}
	if store != nil {
		if v := store.Load(); v > 0 {
			k.value = v
		}
	}
	return k
}

func (k *HighScoreKeeper) Value() int {
	return k.value
}

// UpdateIfBeaten records score when it is strictly higher than the current
// best. Ties and lower scores do nothing.
func (k *HighScoreKeeper) UpdateIfBeaten(score int) bool {
	if score <= k.value {
		return false
	}
	k.value = score
	if k.store != nil {
		k.store.Save(score)
	}
	return true
}
