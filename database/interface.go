package database

import (
	"time"

	"github.com/jing2uo/bkboard/model"
)

type DataRepository interface {
	Connect() error
	Close() error

	InitSchema() error

	ImportBoardDaily(csvPath string) error
	DeleteSince(meta *model.TableMeta, dateCol string, since time.Time) error

	GetLatestDate(tableName string, dateCol string) (time.Time, error)
	QueryBoardHistory(code string, startDate, endDate *time.Time) ([]model.BoardDaily, error)
	QueryLatest() ([]model.BoardDaily, error)
}
