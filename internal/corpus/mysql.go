package corpus

import (
	"context"
	"fmt"

	"domain-chat-go/internal/model"
	"domain-chat-go/pkg/log"

	"gorm.io/gorm"
)

// corpusRow maps one row of the corpus table.
type corpusRow struct {
	Query    string `gorm:"column:query"`
	Response string `gorm:"column:response"`
	Intent   string `gorm:"column:intent"`
	Domain   string `gorm:"column:domain"`
}

// MySQLLoader reads the corpus from a database table with the same four
// columns as the CSV source.
type MySQLLoader struct {
	db    *gorm.DB
	table string
}

// NewMySQLLoader creates a loader over the given table.
func NewMySQLLoader(db *gorm.DB, table string) *MySQLLoader {
	if table == "" {
		table = "corpus_records"
	}
	return &MySQLLoader{db: db, table: table}
}

// Load selects all corpus rows from the table.
func (l *MySQLLoader) Load(ctx context.Context) ([]model.Record, error) {
	if !l.db.WithContext(ctx).Migrator().HasTable(l.table) {
		log.Errorf("[CorpusLoader] corpus table %q does not exist", l.table)
		return nil, fmt.Errorf("%w: table %q", ErrNotFound, l.table)
	}

	var rows []corpusRow
	if err := l.db.WithContext(ctx).Table(l.table).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query corpus table: %w", err)
	}

	records := make([]model.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, model.Record{
			Query:    row.Query,
			Response: row.Response,
			Intent:   row.Intent,
			Domain:   row.Domain,
		})
	}
	log.Infof("[CorpusLoader] loaded %d records from table %q", len(records), l.table)
	return records, nil
}
