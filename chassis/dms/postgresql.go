package dms

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// PGRepository - ...
type PGRepository struct {
	pool *pgxpool.Pool
}

// InitPGRepository - ...
func InitPGRepository(cfg Config) (Repository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.ConnectConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, err
	}
	return &PGRepository{
		pool: pool,
	}, nil
}

// Close - ...
func (repo *PGRepository) Close() {
	repo.pool.Close()
}

// SelectInstruments - ...
func (repo *PGRepository) SelectInstruments(ctx context.Context) ([]InstrumentInfo, error) {
	query := `
	select instrument, instrument_class, raw_data_type, capture_method, source_path
	from v_instrument_info_for_source_status
	`
	rows, err := repo.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var instruments []InstrumentInfo
	for rows.Next() {
		var inst InstrumentInfo
		err = rows.Scan(&inst.Name, &inst.Class, &inst.RawDataType, &inst.CaptureMethod, &inst.SourcePath)
		if err != nil {
			return nil, err
		}
		instruments = append(instruments, inst)
	}
	return instruments, rows.Err()
}

// SelectOperators - ...
func (repo *PGRepository) SelectOperators(ctx context.Context) ([]OperatorInfo, error) {
	query := `
	select name, email, username, user_id, obsolete
	from v_active_users
	`
	rows, err := repo.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var operators []OperatorInfo
	for rows.Next() {
		var op OperatorInfo
		err = rows.Scan(&op.Name, &op.Email, &op.Username, &op.UserID, &op.Obsolete)
		if err != nil {
			return nil, err
		}
		operators = append(operators, op)
	}
	return operators, rows.Err()
}

// SelectErrorSolutions - ...
func (repo *PGRepository) SelectErrorSolutions(ctx context.Context) ([]ErrorSolution, error) {
	query := `
	select error_text, solution
	from v_error_solutions
	`
	rows, err := repo.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var solutions []ErrorSolution
	for rows.Next() {
		var sol ErrorSolution
		err = rows.Scan(&sol.ErrorText, &sol.Solution)
		if err != nil {
			return nil, err
		}
		solutions = append(solutions, sol)
	}
	return solutions, rows.Err()
}

// RequestCaptureTask - dequeue one pending dataset creation task. The procedure
// returns the sentinel id 0 when no work remains; Params is empty in that case.
func (repo *PGRepository) RequestCaptureTask(ctx context.Context) (*CaptureTask, error) {
	task := &CaptureTask{}
	query := `select task_id, parameters from request_dataset_create_task($1)`
	err := repo.pool.QueryRow(ctx, query, "DataImportManager").Scan(&task.ID, &task.Params)
	if errors.Is(err, pgx.ErrNoRows) {
		task.ID = NoMoreWorkID
		return task, nil
	}
	if err != nil {
		return nil, err
	}
	return task, nil
}

// CompleteCaptureTask - ...
func (repo *PGRepository) CompleteCaptureTask(ctx context.Context, taskID int, code int, message string) error {
	query := `call complete_dataset_create_task($1, $2, $3)`
	_, err := repo.pool.Exec(ctx, query, taskID, code, message)
	return err
}

// ProvisionStoragePath - ...
func (repo *PGRepository) ProvisionStoragePath(ctx context.Context, instrument string) error {
	query := `select get_instrument_storage_path_for_new_datasets($1)`
	var storagePathID int
	err := repo.pool.QueryRow(ctx, query, instrument).Scan(&storagePathID)
	if err != nil {
		return err
	}
	if storagePathID == 0 {
		return errors.New("storage path procedure returned id 0 for " + instrument)
	}
	return nil
}

// AddNewDataset - ...
func (repo *PGRepository) AddNewDataset(ctx context.Context, doc string) (int, string, error) {
	query := `select _returncode, _message from add_new_dataset($1, $2)`
	var returnCode int
	var message string
	err := repo.pool.QueryRow(ctx, query, doc, "add").Scan(&returnCode, &message)
	if err != nil {
		return 0, "", err
	}
	return returnCode, message, nil
}
