package db

import (
	"fmt"
	"time"

	"github.com/blockchain-insights/insights/api/types"
)

// InsertValidationResults inserts one round's result rows
func (n *SqlDB) InsertValidationResults(infos []*types.ValidationResultInfo) error {
	tx, err := n.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	for _, info := range infos {
		query := fmt.Sprintf(`INSERT INTO %s (round_id, miner_id, hotkey, network, verdict, cross_check, agreed, score, response_time, start_time, end_time) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, validationResultTable)
		_, err = tx.Exec(query, info.RoundID, info.MinerID, info.Hotkey, info.Network, info.Verdict, info.CrossCheck, info.Agreed, info.Score, info.ResponseTime, info.StartTime, info.EndTime)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListValidationResults returns result rows in a time range, paged
func (n *SqlDB) ListValidationResults(startTime, endTime time.Time, pageNumber, pageSize int) (*types.ListValidationResultsRsp, error) {
	res := new(types.ListValidationResultsRsp)
	var infos []types.ValidationResultInfo

	if pageSize > loadResultInfosLimit {
		pageSize = loadResultInfosLimit
	}

	query := fmt.Sprintf("SELECT * FROM %s WHERE start_time between ? and ? order by id asc LIMIT ?,?", validationResultTable)
	err := n.db.Select(&infos, query, startTime, endTime, (pageNumber-1)*pageSize, pageSize)
	if err != nil {
		return nil, err
	}

	res.ValidationResultInfos = infos

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE start_time between ? and ?", validationResultTable)
	var count int
	err = n.db.Get(&count, countQuery, startTime, endTime)
	if err != nil {
		return nil, err
	}

	res.Total = count

	return res, nil
}

// LoadMinerResults returns the most recent result rows for one miner
func (n *SqlDB) LoadMinerResults(minerID string, limit int) ([]types.ValidationResultInfo, error) {
	if limit <= 0 || limit > loadResultInfosLimit {
		limit = loadResultInfosLimit
	}

	var infos []types.ValidationResultInfo
	query := fmt.Sprintf("SELECT * FROM %s WHERE miner_id=? order by id desc LIMIT ?", validationResultTable)
	if err := n.db.Select(&infos, query, minerID, limit); err != nil {
		return nil, err
	}

	return infos, nil
}
