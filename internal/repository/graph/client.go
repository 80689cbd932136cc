package graph

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"Yam_Community/internal/metrics"
	"Yam_Community/internal/pkg"
)

// Tx runs statements inside one managed transaction.
type Tx interface {
	Run(ctx context.Context, st Statement) ([]*neo4j.Record, error)
}

// Executor opens managed transactions. Every statement run through fn commits or rolls back together.
type Executor interface {
	Read(ctx context.Context, op string, fn func(tx Tx) error) error
	Write(ctx context.Context, op string, fn func(tx Tx) error) error
}

type Config struct {
	URI      string
	User     string
	Password string
	Database string
}

// Client is the neo4j-backed Executor.
type Client struct {
	driver   neo4j.DriverWithContext
	database string
	metrics  *metrics.Metrics
}

// Open 建立连接并做一次连通性检查
func Open(ctx context.Context, cfg Config, m *metrics.Metrics) (*Client, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.User, cfg.Password, ""))
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err = driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, err
	}
	return &Client{driver: driver, database: cfg.Database, metrics: m}, nil
}

func (c *Client) Close(ctx context.Context) error {
	if c == nil || c.driver == nil {
		return nil
	}
	return c.driver.Close(ctx)
}

func (c *Client) Read(ctx context.Context, op string, fn func(tx Tx) error) error {
	return c.execute(ctx, neo4j.AccessModeRead, op, fn)
}

func (c *Client) Write(ctx context.Context, op string, fn func(tx Tx) error) error {
	return c.execute(ctx, neo4j.AccessModeWrite, op, fn)
}

func (c *Client) execute(ctx context.Context, mode neo4j.AccessMode, op string, fn func(tx Tx) error) error {
	start := time.Now()
	defer func() { c.metrics.ObserveGraph(op, time.Since(start)) }()

	session := c.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: mode, DatabaseName: c.database})
	defer session.Close(ctx)

	work := func(mtx neo4j.ManagedTransaction) (any, error) {
		return nil, fn(managedTx{tx: mtx})
	}
	var err error
	if mode == neo4j.AccessModeRead {
		_, err = session.ExecuteRead(ctx, work)
	} else {
		_, err = session.ExecuteWrite(ctx, work)
	}
	return storeError(op, err)
}

const constraintViolation = "Neo.ClientError.Schema.ConstraintValidationFailed"

// storeError 唯一约束冲突映射为 ErrConflict，其余按存储失败处理
func storeError(op string, err error) error {
	var nerr *neo4j.Neo4jError
	if errors.As(err, &nerr) && nerr.Code == constraintViolation {
		return fmt.Errorf("%w: %s: %s", pkg.ErrConflict, op, nerr.Msg)
	}
	return pkg.Store(op, err)
}

type managedTx struct {
	tx neo4j.ManagedTransaction
}

func (m managedTx) Run(ctx context.Context, st Statement) ([]*neo4j.Record, error) {
	if err := st.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", pkg.ErrInvalidArgument, err)
	}
	res, err := m.tx.Run(ctx, st.Cypher, st.Params)
	if err != nil {
		return nil, err
	}
	return res.Collect(ctx)
}

var schema = []string{
	"CREATE CONSTRAINT community_id IF NOT EXISTS FOR (c:Community) REQUIRE c.communityId IS UNIQUE",
	"CREATE CONSTRAINT user_id IF NOT EXISTS FOR (u:User) REQUIRE u.userId IS UNIQUE",
	"CREATE CONSTRAINT post_id IF NOT EXISTS FOR (p:Post) REQUIRE p.postId IS UNIQUE",
	"CREATE CONSTRAINT comment_id IF NOT EXISTS FOR (c:Comment) REQUIRE c.commentId IS UNIQUE",
	"CREATE CONSTRAINT community_name IF NOT EXISTS FOR (c:Community) REQUIRE c.name IS UNIQUE",
}

// EnsureSchema 创建唯一约束，启动时调用
func (c *Client) EnsureSchema(ctx context.Context) error {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite, DatabaseName: c.database})
	defer session.Close(ctx)
	for _, stmt := range schema {
		res, err := session.Run(ctx, stmt, nil)
		if err != nil {
			return pkg.Store("schema", err)
		}
		if _, err = res.Consume(ctx); err != nil {
			return pkg.Store("schema", err)
		}
	}
	return nil
}
