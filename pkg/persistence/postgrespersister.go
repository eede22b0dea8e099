// Package persistence contains components to interact with the DB
package persistence // import "github.com/joincivil/content-moderation-adapter/pkg/persistence"

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	// driver for postgresql
	_ "github.com/lib/pq"

	"github.com/joincivil/content-moderation-adapter/pkg/model"
	"github.com/joincivil/content-moderation-adapter/pkg/persistence/postgres"
)

// NewPostgresPersister creates a new postgres persister
func NewPostgresPersister(host string, port int, user string, password string, dbname string) (*PostgresPersister, error) {
	pgPersister := &PostgresPersister{
		guidelineTableName:        postgres.GuidelineTableName,
		moderationResultTableName: postgres.ModerationResultTableName,
		cronTableName:             postgres.CronTableName,
	}
	psqlInfo := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable", host, port, user, password, dbname)
	db, err := sqlx.Connect("postgres", psqlInfo)
	if err != nil {
		return pgPersister, fmt.Errorf("Error connecting to sqlx: %v", err)
	}
	pgPersister.db = db
	return pgPersister, nil
}

// PostgresPersister holds the DB connection and persistence
type PostgresPersister struct {
	db *sqlx.DB

	guidelineTableName        string
	moderationResultTableName string
	cronTableName             string
}

// WithTableNames returns a persister on the same connection using the given
// table names. Used to keep test data out of the live tables.
func (p *PostgresPersister) WithTableNames(guideline string, moderationResult string, cron string) *PostgresPersister {
	return &PostgresPersister{
		db:                        p.db,
		guidelineTableName:        guideline,
		moderationResultTableName: moderationResult,
		cronTableName:             cron,
	}
}

// Close closes the DB connection
func (p *PostgresPersister) Close() error {
	return p.db.Close()
}

// CreateTables creates the tables for the sync if they don't exist
func (p *PostgresPersister) CreateTables() error {
	guidelineSchema := postgres.CreateGuidelineTableQueryString(p.guidelineTableName)
	moderationResultSchema := postgres.CreateModerationResultTableQueryString(p.moderationResultTableName)
	cronSchema := postgres.CreateCronTableQueryString(p.cronTableName)

	_, err := p.db.Exec(guidelineSchema)
	if err != nil {
		return fmt.Errorf("Error creating %v table in postgres: %v", p.guidelineTableName, err)
	}
	_, err = p.db.Exec(moderationResultSchema)
	if err != nil {
		return fmt.Errorf("Error creating %v table in postgres: %v", p.moderationResultTableName, err)
	}
	_, err = p.db.Exec(cronSchema)
	if err != nil {
		return fmt.Errorf("Error creating %v table in postgres: %v", p.cronTableName, err)
	}
	return nil
}

// GuidelineByID retrieves a guideline by its id
func (p *PostgresPersister) GuidelineByID(id string) (*model.Guideline, error) {
	dbGuideline := postgres.Guideline{}
	err := p.db.Get(&dbGuideline, p.guidelineByIDQuery(p.guidelineTableName), id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrPersisterNoResults
		}
		return nil, fmt.Errorf("Error retrieving guideline %v: %v", id, err)
	}
	return dbGuideline.DbToGuidelineData(), nil
}

// Guidelines returns all stored guidelines ordered by id
func (p *PostgresPersister) Guidelines() ([]*model.Guideline, error) {
	dbGuidelines := []postgres.Guideline{}
	queryString := fmt.Sprintf("SELECT guideline_id, text, creator_address, last_synced_timestamp FROM %s "+
		"ORDER BY guideline_id;", p.guidelineTableName) // nolint: gosec
	err := p.db.Select(&dbGuidelines, queryString)
	if err != nil {
		return nil, fmt.Errorf("Error retrieving guidelines: %v", err)
	}
	guidelines := make([]*model.Guideline, 0, len(dbGuidelines))
	for _, dbGuideline := range dbGuidelines {
		guidelines = append(guidelines, dbGuideline.DbToGuidelineData())
	}
	return guidelines, nil
}

// SaveGuidelines creates or updates the given guidelines in one transaction
func (p *PostgresPersister) SaveGuidelines(guidelines []*model.Guideline) error {
	syncedTs := time.Now().UTC().Unix()
	query := p.upsertGuidelineQuery(p.guidelineTableName)
	return p.inTx(func(tx *sqlx.Tx) error {
		for _, guideline := range guidelines {
			_, err := tx.NamedExec(query, postgres.NewGuideline(guideline, syncedTs))
			if err != nil {
				return fmt.Errorf("Error saving guideline %v to table: %v", guideline.ID, err)
			}
		}
		return nil
	})
}

// ModerationResultsByCriteria returns stored results that match the filter,
// ordered by post id then guideline id
func (p *PostgresPersister) ModerationResultsByCriteria(filter *model.ModerationFilter) ([]*model.ModerationResult, error) {
	queryString, args := p.moderationResultsByCriteriaQuery(p.moderationResultTableName, filter)
	dbResults := []postgres.ModerationResult{}
	err := p.db.Select(&dbResults, queryString, args...)
	if err != nil {
		return nil, fmt.Errorf("Error retrieving moderation results: %v", err)
	}
	results := make([]*model.ModerationResult, 0, len(dbResults))
	for _, dbResult := range dbResults {
		results = append(results, dbResult.DbToModerationResultData())
	}
	return results, nil
}

// SaveModerationResults creates or updates the given results in one transaction
func (p *PostgresPersister) SaveModerationResults(results []*model.ModerationResult) error {
	syncedTs := time.Now().UTC().Unix()
	query := p.upsertModerationResultQuery(p.moderationResultTableName)
	return p.inTx(func(tx *sqlx.Tx) error {
		for _, result := range results {
			_, err := tx.NamedExec(query, postgres.NewModerationResult(result, syncedTs))
			if err != nil {
				return fmt.Errorf("Error saving moderation result %v/%v to table: %v",
					result.PostID, result.GuidelineID, err)
			}
		}
		return nil
	})
}

// TimestampOfLastSyncForCron returns the timestamp of the last completed sync,
// 0 if no sync has completed
func (p *PostgresPersister) TimestampOfLastSyncForCron() (int64, error) {
	cronData := postgres.CronData{}
	queryString := fmt.Sprintf("SELECT timestamp FROM %s;", p.cronTableName) // nolint: gosec
	err := p.db.Get(&cronData, queryString)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("Error retrieving cron timestamp: %v", err)
	}
	return cronData.Timestamp, nil
}

// UpdateTimestampForCron updates the timestamp of the last completed sync
func (p *PostgresPersister) UpdateTimestampForCron(timestamp int64) error {
	queryString := fmt.Sprintf("INSERT INTO %s (timestamp) VALUES (:timestamp) "+
		"ON CONFLICT ((timestamp IS NOT NULL)) DO UPDATE SET timestamp = EXCLUDED.timestamp;", p.cronTableName) // nolint: gosec
	_, err := p.db.NamedExec(queryString, postgres.NewCron(timestamp))
	if err != nil {
		return fmt.Errorf("Error updating cron timestamp: %v", err)
	}
	return nil
}

func (p *PostgresPersister) inTx(fn func(tx *sqlx.Tx) error) error {
	tx, err := p.db.Beginx()
	if err != nil {
		return fmt.Errorf("Error starting transaction: %v", err)
	}
	err = fn(tx)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (p *PostgresPersister) guidelineByIDQuery(tableName string) string {
	queryString := fmt.Sprintf("SELECT guideline_id, text, creator_address, last_synced_timestamp FROM %s "+
		"WHERE guideline_id=$1;", tableName) // nolint: gosec
	return queryString
}

func (p *PostgresPersister) upsertGuidelineQuery(tableName string) string {
	queryString := fmt.Sprintf("INSERT INTO %s (guideline_id, text, creator_address, last_synced_timestamp) "+
		"VALUES (:guideline_id, :text, :creator_address, :last_synced_timestamp) "+
		"ON CONFLICT (guideline_id) DO UPDATE SET text = EXCLUDED.text, creator_address = EXCLUDED.creator_address, "+
		"last_synced_timestamp = EXCLUDED.last_synced_timestamp;", tableName) // nolint: gosec
	return queryString
}

func (p *PostgresPersister) upsertModerationResultQuery(tableName string) string {
	queryString := fmt.Sprintf("INSERT INTO %s (post_id, guideline_id, post_content, outcome, reasoning, "+
		"moderator_address, last_synced_timestamp) VALUES (:post_id, :guideline_id, :post_content, :outcome, "+
		":reasoning, :moderator_address, :last_synced_timestamp) "+
		"ON CONFLICT (post_id, guideline_id) DO UPDATE SET post_content = EXCLUDED.post_content, "+
		"outcome = EXCLUDED.outcome, reasoning = EXCLUDED.reasoning, moderator_address = EXCLUDED.moderator_address, "+
		"last_synced_timestamp = EXCLUDED.last_synced_timestamp;", tableName) // nolint: gosec
	return queryString
}

func (p *PostgresPersister) moderationResultsByCriteriaQuery(tableName string,
	filter *model.ModerationFilter) (string, []interface{}) {
	conditions := []string{}
	args := []interface{}{}
	if filter != nil {
		columns := []string{"outcome", "post_id", "guideline_id"}
		values := []string{string(filter.Outcome), filter.PostID, filter.GuidelineID}
		for i, column := range columns {
			if values[i] == "" {
				continue
			}
			args = append(args, values[i])
			conditions = append(conditions, fmt.Sprintf("%s=$%d", column, len(args)))
		}
	}
	queryBuf := &strings.Builder{}
	fmt.Fprintf(queryBuf, "SELECT post_id, guideline_id, post_content, outcome, reasoning, moderator_address, "+
		"last_synced_timestamp FROM %s", tableName) // nolint: gosec
	if len(conditions) > 0 {
		fmt.Fprintf(queryBuf, " WHERE %s", strings.Join(conditions, " AND "))
	}
	queryBuf.WriteString(" ORDER BY post_id, guideline_id;")
	return queryBuf.String(), args
}
