package postgres

import "github.com/Masterminds/squirrel"

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Builder returns a squirrel statement builder that emits $n placeholders.
func Builder() squirrel.StatementBuilderType {
	return psql
}
