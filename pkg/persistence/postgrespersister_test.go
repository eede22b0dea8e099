// +build integration

// This is an integration test file for postgrespersister. Postgres needs to be running.
// Run this using go test -tags=integration
package persistence

import (
	"fmt"
	"testing"

	"github.com/joincivil/content-moderation-adapter/pkg/model"
	"github.com/joincivil/content-moderation-adapter/pkg/persistence/postgres"
)

const (
	postgresPort                  = 5432
	postgresDBName                = "moderation"
	postgresUser                  = "docker"
	postgresPswd                  = "docker"
	postgresHost                  = "localhost"
	guidelineTestTableName        = "guideline_test"
	moderationResultTestTableName = "moderation_result_test"
	cronTestTableName             = "cron_test"
	testAddress                   = "0x77e5aaBddb760FBa989A1C4B2CDd4aA8Fa3d311d"
)

func setupTestTables() (*PostgresPersister, error) {
	persister, err := NewPostgresPersister(postgresHost, postgresPort, postgresUser, postgresPswd, postgresDBName)
	if err != nil {
		return nil, fmt.Errorf("Error setting up new persister: err: %v", err)
	}
	persister = persister.WithTableNames(guidelineTestTableName, moderationResultTestTableName, cronTestTableName)
	err = persister.CreateTables()
	if err != nil {
		return nil, fmt.Errorf("Error setting up tables in db: %v", err)
	}
	return persister, nil
}

func deleteTestTables(t *testing.T, persister *PostgresPersister) {
	for _, tableName := range []string{guidelineTestTableName, moderationResultTestTableName, cronTestTableName} {
		_, err := persister.db.Query(fmt.Sprintf("DROP TABLE %v;", tableName)) // nolint: gosec
		if err != nil {
			t.Errorf("Error deleting table %v: %v", tableName, err)
		}
	}
}

func checkTableCount(t *testing.T, persister *PostgresPersister, tableName string, want int) {
	var count int
	err := persister.db.Get(&count, postgres.CheckTableCount(tableName))
	if err != nil {
		t.Fatalf("Error counting %v: %v", tableName, err)
	}
	if count != want {
		t.Errorf("%v should have %v rows, got %v", tableName, want, count)
	}
}

func TestGuidelineUpsert(t *testing.T) {
	persister, err := setupTestTables()
	if err != nil {
		t.Fatalf("%v", err)
	}
	defer deleteTestTables(t, persister)

	err = persister.SaveGuidelines([]*model.Guideline{
		model.NewGuideline("g1", "Be civil", testAddress),
		model.NewGuideline("g2", "No spam", ""),
	})
	if err != nil {
		t.Fatalf("Should not have failed to save guidelines: err: %v", err)
	}
	err = persister.SaveGuidelines([]*model.Guideline{model.NewGuideline("g2", "No spam ever", "")})
	if err != nil {
		t.Fatalf("Should not have failed to update guidelines: err: %v", err)
	}
	checkTableCount(t, persister, guidelineTestTableName, 2)

	guideline, err := persister.GuidelineByID("g2")
	if err != nil {
		t.Fatalf("Should have found g2: err: %v", err)
	}
	if guideline.Text != "No spam ever" {
		t.Errorf("Should have updated the text, got %v", guideline.Text)
	}
	guideline, _ = persister.GuidelineByID("g1")
	if guideline.CreatorAddress != postgres.NormalizeAddress(testAddress) {
		t.Errorf("Should have stored the normalized address, got %v", guideline.CreatorAddress)
	}
	if _, err := persister.GuidelineByID("g3"); err != model.ErrPersisterNoResults {
		t.Errorf("Should have returned no results: err: %v", err)
	}
}

func TestModerationResultsByCriteria(t *testing.T) {
	persister, err := setupTestTables()
	if err != nil {
		t.Fatalf("%v", err)
	}
	defer deleteTestTables(t, persister)

	err = persister.SaveModerationResults([]*model.ModerationResult{
		{PostID: "p1", GuidelineID: "g1", Outcome: model.OutcomeRemove},
		{PostID: "p1", GuidelineID: "g2", Outcome: model.OutcomeKeep},
		{PostID: "p2", GuidelineID: "g1", Outcome: model.Outcome("escalate")},
	})
	if err != nil {
		t.Fatalf("Should not have failed to save results: err: %v", err)
	}
	checkTableCount(t, persister, moderationResultTestTableName, 3)

	results, err := persister.ModerationResultsByCriteria(&model.ModerationFilter{PostID: "p1"})
	if err != nil {
		t.Fatalf("Should not have failed to query: err: %v", err)
	}
	if len(results) != 2 || results[0].GuidelineID != "g1" {
		t.Errorf("Should have returned p1 results in guideline order: %v", results)
	}
	results, _ = persister.ModerationResultsByCriteria(&model.ModerationFilter{Outcome: "escalate"})
	if len(results) != 1 || results[0].PostID != "p2" {
		t.Errorf("Should have kept the unknown outcome verbatim: %v", results)
	}
}

func TestCronTimestamp(t *testing.T) {
	persister, err := setupTestTables()
	if err != nil {
		t.Fatalf("%v", err)
	}
	defer deleteTestTables(t, persister)

	ts, err := persister.TimestampOfLastSyncForCron()
	if err != nil || ts != 0 {
		t.Errorf("Should have started at 0: %v %v", ts, err)
	}
	for _, timestamp := range []int64{1000, 2000} {
		if err := persister.UpdateTimestampForCron(timestamp); err != nil {
			t.Fatalf("Should not have failed to update timestamp: err: %v", err)
		}
	}
	checkTableCount(t, persister, cronTestTableName, 1)
	ts, _ = persister.TimestampOfLastSyncForCron()
	if ts != 2000 {
		t.Errorf("Should have the latest timestamp, got %v", ts)
	}
}
