package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/civiclens/civic-complaints-api/databases"
	"github.com/civiclens/civic-complaints-api/models"
)

// Scheduler runs the periodic background jobs for the portal. Its one job
// today is the nightly reconciliation of the cached department counters
// against live complaint counts, which repairs any drift caused by crashed
// requests between the complaint write and the counter update.
type Scheduler struct {
	cron *cron.Cron
	DDB  databases.DepartmentDatabase
	CDB  databases.ComplaintDatabase
}

// NewScheduler creates a new scheduler instance
func NewScheduler(dDB databases.DepartmentDatabase, cDB databases.ComplaintDatabase) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithLocation(time.UTC)),
		DDB:  dDB,
		CDB:  cDB,
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() {
	// Reconcile department counters nightly at 3 AM UTC
	_, err := s.cron.AddFunc("0 3 * * *", s.reconcileDepartmentCounters)
	if err != nil {
		zap.S().Errorw("failed to register counter reconciliation job", "error", err)
	}

	s.cron.Start()
	zap.S().Info("department counter scheduler started")
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("department counter scheduler stopped")
}

// reconcileDepartmentCounters recounts totalComplaints and
// resolvedComplaints for every department from the complaints collection
// and rewrites any counter that drifted. avgResolutionTime is left alone,
// it is only meaningful as a running average.
func (s *Scheduler) reconcileDepartmentCounters() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	departments, err := s.DDB.Find(ctx, bson.M{})
	if err != nil {
		zap.S().Errorw("counter reconciliation failed to list departments", "error", err)
		return
	}

	repaired := 0
	for _, dept := range departments {
		total, err := s.CDB.CountDocuments(ctx, bson.M{"department": dept.ID})
		if err != nil {
			zap.S().Errorw("counter reconciliation count failed",
				"departmentID", dept.ID.Hex(), "error", err)
			continue
		}
		resolved, err := s.CDB.CountDocuments(ctx, bson.M{
			"department": dept.ID,
			"status":     models.StatusResolved,
		})
		if err != nil {
			zap.S().Errorw("counter reconciliation count failed",
				"departmentID", dept.ID.Hex(), "error", err)
			continue
		}

		if total == dept.TotalComplaints && resolved == dept.ResolvedComplaints {
			continue
		}

		_, err = s.DDB.UpdateOne(ctx, bson.M{"_id": dept.ID}, bson.M{"$set": bson.M{
			"totalComplaints":    total,
			"resolvedComplaints": resolved,
		}})
		if err != nil {
			zap.S().Errorw("counter reconciliation update failed",
				"departmentID", dept.ID.Hex(), "error", err)
			continue
		}
		zap.S().Infow("department counters repaired",
			"departmentID", dept.ID.Hex(),
			"totalComplaints", total,
			"resolvedComplaints", resolved)
		repaired++
	}

	zap.S().Infow("department counter reconciliation finished",
		"departments", len(departments), "repaired", repaired)
}
