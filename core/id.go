package core

import (
	"crypto/rand"
	"strconv"
	"sync/atomic"
	"time"

	"pkt.systems/termdeck/schema"
)

// Counters are process wide so ids stay unique across users and services.
var (
	tabCounter  atomic.Uint64
	paneCounter atomic.Uint64
)

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

func nextTabID() schema.TabID {
	return schema.TabID("tab-" + strconv.FormatUint(tabCounter.Add(1), 10))
}

func nextPaneID() schema.PaneID {
	return schema.PaneID("pane-" + strconv.FormatUint(paneCounter.Add(1), 10))
}

func nextSessionID() schema.SessionID {
	now := time.Now()
	return schema.SessionID("session-" + strconv.FormatInt(now.UnixMilli(), 36) + "-" + randomSuffix(9, now))
}

func randomSuffix(n int, now time.Time) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// Fall back to the clock; the pane counter keeps it distinct.
		seed := uint64(now.UnixNano()) ^ paneCounter.Load()<<32
		for i := range buf {
			buf[i] = byte(seed >> (uint(i) * 7))
		}
	}
	for i, b := range buf {
		buf[i] = base36[int(b)%len(base36)]
	}
	return string(buf)
}
