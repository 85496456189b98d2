package sqlite

import (
	"context"
	"database/sql"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/dekarrin/gramq/server/dao"
	"github.com/google/uuid"
)

const corpusColumns = `id, grammar_id, owner_id, seed, count, data, created`

type CorporaDB struct {
	db *sql.DB
}

func (repo *CorporaDB) init(fk bool) error {
	stmt := `CREATE TABLE IF NOT EXISTS corpora (
		id TEXT NOT NULL PRIMARY KEY,
		grammar_id TEXT NOT NULL`

	if fk {
		stmt += ` REFERENCES grammars(id) ON DELETE CASCADE ON UPDATE CASCADE`
	}

	stmt += `,
		owner_id TEXT NOT NULL`

	if fk {
		stmt += ` REFERENCES users(id) ON DELETE CASCADE ON UPDATE CASCADE`
	}

	stmt += `,
		seed INTEGER NOT NULL,
		count INTEGER NOT NULL,
		data TEXT NOT NULL,
		created INTEGER NOT NULL
	);`
	_, err := repo.db.Exec(stmt)
	if err != nil {
		return wrapDBError(err)
	}
	return nil
}

func (repo *CorporaDB) Create(ctx context.Context, c dao.Corpus) (dao.Corpus, error) {
	newUUID, err := uuid.NewRandom()
	if err != nil {
		return dao.Corpus{}, fmt.Errorf("could not generate ID: %w", err)
	}

	_, err = repo.db.ExecContext(ctx, `INSERT INTO corpora (`+corpusColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		convertToDB_UUID(newUUID),
		convertToDB_UUID(c.GrammarID),
		convertToDB_UUID(c.OwnerID),
		c.Seed,
		c.Count,
		base64.StdEncoding.EncodeToString(c.Data),
		convertToDB_Time(time.Now()),
	)
	if err != nil {
		return dao.Corpus{}, wrapDBError(err)
	}

	return repo.GetByID(ctx, newUUID)
}

func (repo *CorporaDB) GetByID(ctx context.Context, id uuid.UUID) (dao.Corpus, error) {
	row := repo.db.QueryRowContext(ctx, `SELECT `+corpusColumns+` FROM corpora WHERE id = ?;`, convertToDB_UUID(id))
	return scanCorpus(row)
}

func (repo *CorporaDB) GetAllByGrammar(ctx context.Context, grammarID uuid.UUID) ([]dao.Corpus, error) {
	rows, err := repo.db.QueryContext(ctx, `SELECT `+corpusColumns+` FROM corpora WHERE grammar_id = ? ORDER BY created, id;`,
		convertToDB_UUID(grammarID),
	)
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	var all []dao.Corpus
	for rows.Next() {
		c, err := scanCorpus(rows)
		if err != nil {
			return all, err
		}
		all = append(all, c)
	}
	if err := rows.Err(); err != nil {
		return all, wrapDBError(err)
	}
	return all, nil
}

func (repo *CorporaDB) Delete(ctx context.Context, id uuid.UUID) (dao.Corpus, error) {
	curVal, err := repo.GetByID(ctx, id)
	if err != nil {
		return curVal, err
	}

	res, err := repo.db.ExecContext(ctx, `DELETE FROM corpora WHERE id = ?`, convertToDB_UUID(id))
	if err := notFoundIfNone(res, err); err != nil {
		return curVal, err
	}
	return curVal, nil
}

func (repo *CorporaDB) DeleteAllByGrammar(ctx context.Context, grammarID uuid.UUID) ([]dao.Corpus, error) {
	all, err := repo.GetAllByGrammar(ctx, grammarID)
	if err != nil {
		return nil, err
	}

	_, err = repo.db.ExecContext(ctx, `DELETE FROM corpora WHERE grammar_id = ?`, convertToDB_UUID(grammarID))
	if err != nil {
		return nil, wrapDBError(err)
	}

	return all, nil
}

func (repo *CorporaDB) Close() error {
	return nil
}

func scanCorpus(row scanner) (dao.Corpus, error) {
	var c dao.Corpus
	var id string
	var grammarID string
	var owner string
	var data string
	var created int64

	err := row.Scan(&id, &grammarID, &owner, &c.Seed, &c.Count, &data, &created)
	if err != nil {
		return dao.Corpus{}, wrapDBError(err)
	}

	err = convertFromDB_UUID(id, &c.ID)
	if err != nil {
		return c, fmt.Errorf("stored UUID %q is invalid: %w", id, err)
	}
	err = convertFromDB_UUID(grammarID, &c.GrammarID)
	if err != nil {
		return c, fmt.Errorf("stored grammar UUID %q is invalid: %w", grammarID, err)
	}
	err = convertFromDB_UUID(owner, &c.OwnerID)
	if err != nil {
		return c, fmt.Errorf("stored owner UUID %q is invalid: %w", owner, err)
	}
	c.Data, err = base64.StdEncoding.DecodeString(data)
	if err != nil {
		return c, fmt.Errorf("stored data is not valid base64: %w", err)
	}
	err = convertFromDB_Time(created, &c.Created)
	if err != nil {
		return c, fmt.Errorf("stored created time %d is invalid: %w", created, err)
	}

	return c, nil
}
