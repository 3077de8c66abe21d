package handlers

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// isForeignKeyConstraintError reports a MySQL foreign key failure, which
// means the request referenced a row that does not exist.
func isForeignKeyConstraintError(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1452
}
