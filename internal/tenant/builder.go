package tenant

import (
	"fmt"
	"strings"

	"carconnect/internal/domain"
)

// BuildPartialUpdate emits
//
//	UPDATE <table> SET col1=$1, col2=$2 WHERE <keyColumn>=$n RETURNING *
//
// for the columns of allowedColumns present in providedFields, in allowedColumns order.
// Keys of providedFields outside the allow-list are ignored. Values are only ever bound
// as parameters.
func BuildPartialUpdate(table string, allowedColumns []string, providedFields map[string]any, keyColumn string, keyValue any) (string, []any, error) {
	tableRef, err := qualifiedName(table)
	if err != nil {
		return "", nil, err
	}
	if err := ValidateIdentifier(keyColumn); err != nil {
		return "", nil, err
	}

	sets := make([]string, 0, len(allowedColumns))
	args := make([]any, 0, len(allowedColumns)+1)
	seen := make(map[string]bool, len(allowedColumns))
	for _, col := range allowedColumns {
		if err := ValidateIdentifier(col); err != nil {
			return "", nil, err
		}
		v, ok := providedFields[col]
		if !ok || seen[col] {
			continue
		}
		seen[col] = true
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s=$%d", QuoteIdentifier(col), len(args)))
	}
	if len(sets) == 0 {
		return "", nil, domain.ErrNoFieldsProvided
	}

	args = append(args, keyValue)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s=$%d RETURNING *",
		tableRef, strings.Join(sets, ", "), QuoteIdentifier(keyColumn), len(args))
	return query, args, nil
}
