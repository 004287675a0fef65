package evm

import "time"

// EstimateHistoricalStartBlock estimates the block height at createdAt,
// given the current head height/time and the chain's average block time,
// then bounds the look-back to maxWindowBlocks so a slow-confirming chain
// never triggers an unbounded scan.
func EstimateHistoricalStartBlock(currentBlock uint64, now, createdAt time.Time, blockTimeSeconds float64, maxWindowBlocks int64) uint64 {
	if blockTimeSeconds <= 0 {
		blockTimeSeconds = 2
	}

	elapsed := now.Sub(createdAt).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}

	blocksAgo := int64(elapsed / blockTimeSeconds)
	if maxWindowBlocks > 0 && blocksAgo > maxWindowBlocks {
		blocksAgo = maxWindowBlocks
	}

	if blocksAgo < 0 || uint64(blocksAgo) > currentBlock {
		return 0
	}
	return currentBlock - uint64(blocksAgo)
}
