package service

import (
	"context"
	"log"
	"time"
)

// ReminderWorkerConfig holds settings for the linking reminder worker.
type ReminderWorkerConfig struct {
	Interval time.Duration
}

// ReminderWorker periodically nudges responsible users about correction
// invoices still awaiting a linking decision.
type ReminderWorker struct {
	linking LinkingService
	cfg     ReminderWorkerConfig
}

// NewReminderWorker creates a new ReminderWorker.
func NewReminderWorker(linking LinkingService, cfg ReminderWorkerConfig) *ReminderWorker {
	return &ReminderWorker{linking: linking, cfg: cfg}
}

// Start runs the reminder loop until ctx is canceled.
func (w *ReminderWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	log.Printf("reminderWorker: started (interval=%s)", w.cfg.Interval)

	for {
		select {
		case <-ctx.Done():
			log.Printf("reminderWorker: shutdown complete")
			return
		case <-ticker.C:
			passCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			reminded, err := w.linking.ReminderPass(passCtx)
			cancel()
			if err != nil {
				log.Printf("reminderWorker: pass failed: %v", err)
				continue
			}
			if reminded > 0 {
				log.Printf("reminderWorker: reminded about %d invoice(s)", reminded)
			}
		}
	}
}
