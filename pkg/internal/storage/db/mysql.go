//go:build !no_mysql

package db

import (
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/yeisme/classmedia/pkg/configs"
)

func openMySQL(dsn string) gorm.Dialector {
	return mysql.Open(dsn)
}

func init() {
	RegisterDialectorFactory(configs.MySQL, openMySQL)
	RegisterDialectorFactory(configs.MariaDB, openMySQL)
}
