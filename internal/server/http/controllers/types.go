package controllers

// applyReq represents a request to add a delta to a counter.
//
// A missing delta applies 0, returning the current values.
type applyReq struct {
	Key   string `json:"key"`
	Delta int64  `json:"delta"`
}

// persistedKey marks responses served from the in-memory fallback.
const persistedKey = "_persisted"
