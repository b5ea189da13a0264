package database

import (
	"fmt"
	"strings"

	"github.com/huandu/go-sqlbuilder"
)

func Excluded(column string) string {
	return fmt.Sprintf("EXCLUDED.%s", column)
}

type InsertBuilder struct {
	*sqlbuilder.InsertBuilder
	conflict string
}

func NewInsertBuilder() *InsertBuilder {
	return &InsertBuilder{InsertBuilder: sqlbuilder.PostgreSQL.NewInsertBuilder()}
}

// OnConflictUpdate overwrites updateColumns with the incoming row when conflictColumns collide
func (b *InsertBuilder) OnConflictUpdate(conflictColumns []string, updateColumns ...string) *InsertBuilder {
	sets := make([]string, 0, len(updateColumns))
	for _, col := range updateColumns {
		sets = append(sets, fmt.Sprintf("%s = %s", col, Excluded(col)))
	}
	b.conflict = fmt.Sprintf("ON CONFLICT (%s) DO UPDATE SET %s", strings.Join(conflictColumns, ", "), strings.Join(sets, ", "))
	return b
}

func (b *InsertBuilder) OnConflictDoNothing() *InsertBuilder {
	b.conflict = "ON CONFLICT DO NOTHING"
	return b
}

func (b *InsertBuilder) Build() (string, []any) {
	query, args := b.InsertBuilder.Build()
	if b.conflict != "" {
		query = query + " " + b.conflict
	}
	return query, args
}

func NewSelectBuilder() *sqlbuilder.SelectBuilder {
	return sqlbuilder.PostgreSQL.NewSelectBuilder()
}

func NewUpdateBuilder() *sqlbuilder.UpdateBuilder {
	return sqlbuilder.PostgreSQL.NewUpdateBuilder()
}
