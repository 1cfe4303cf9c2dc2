//go:build !no_sqlite && cgo

package db

import (
	"regexp"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yeisme/classmedia/pkg/configs"
)

// mattn/go-sqlite3 不认识 _pragma=name(value)，转换成 _name=value.
var pragmaRe = regexp.MustCompile(`_pragma=([a-z_]+)\(([^)]*)\)`)

func init() {
	RegisterDialectorFactory(configs.SQLite, func(dsn string) gorm.Dialector {
		return sqlite.Open(pragmaRe.ReplaceAllString(dsn, "_$1=$2"))
	})
}
