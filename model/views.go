package model

import "sync"

type ViewID string

var (
	viewRegistry   []ViewID
	viewRegistryMu sync.Mutex
)

func DefineView(name string) ViewID {
	viewRegistryMu.Lock()
	defer viewRegistryMu.Unlock()

	id := ViewID(name)
	viewRegistry = append(viewRegistry, id)
	return id
}

func AllViews() []ViewID {
	viewRegistryMu.Lock()
	defer viewRegistryMu.Unlock()

	result := make([]ViewID, len(viewRegistry))
	copy(result, viewRegistry)
	return result
}

// --- 定义视图 ---

var (
	// 每个板块最新交易日的一行
	ViewBoardLatest = DefineView("v_board_latest")
	// 每日排名前 10
	ViewBoardTop10 = DefineView("v_board_top10")
)
