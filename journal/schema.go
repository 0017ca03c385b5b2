package journal

const Schema = `
CREATE TABLE IF NOT EXISTS trades (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id INTEGER NOT NULL,
	run_id TEXT NOT NULL,
	asset TEXT NOT NULL,
	side TEXT NOT NULL,
	units REAL NOT NULL,
	entry_price REAL NOT NULL,
	exit_price REAL NOT NULL,
	stop_loss REAL NOT NULL,
	take_profit REAL NOT NULL,
	pnl REAL NOT NULL,
	entry_time INTEGER NOT NULL,
	exit_time INTEGER NOT NULL,
	reason TEXT NOT NULL,
	partial INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_run ON trades(run_id, id);
CREATE INDEX IF NOT EXISTS idx_trades_exit ON trades(exit_time);

CREATE TABLE IF NOT EXISTS equity (
	run_id TEXT NOT NULL,
	time INTEGER NOT NULL,
	value REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_equity_time ON equity(time);
`
