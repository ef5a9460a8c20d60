package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/google/uuid"
	"github.com/guregu/dynamo/v2"

	"github.com/shrimpsizemoose/scratchdrop/internal/apperror"
	"github.com/shrimpsizemoose/scratchdrop/internal/models"
	"github.com/shrimpsizemoose/scratchdrop/internal/store"
)

const (
	indexName = "gsi1"
	gsi1Value = 1
)

// SubmissionRow is the item layout. Every row shares gsi1_pk so the gsi1 index
// can return the whole collection ordered by created_at.
type SubmissionRow struct {
	ID              string   `dynamo:"id,hash"`
	Class           string   `dynamo:"class"`
	StudentName     string   `dynamo:"student_name"`
	ScratchUsername string   `dynamo:"scratch_username"`
	ProjectID       string   `dynamo:"project_id"`
	ProjectURL      string   `dynamo:"project_url"`
	ProjectEmbed    string   `dynamo:"project_embed"`
	Features        []string `dynamo:"features"`
	UserAgent       string   `dynamo:"user_agent"`

	Gsi1Pk    int    `dynamo:"gsi1_pk" index:"gsi1,hash"`
	CreatedAt string `dynamo:"gsi1_sk" index:"gsi1,range"`
}

func NewSubmissionRow(id string, sub models.Submission) SubmissionRow {
	return SubmissionRow{
		ID:              id,
		Class:           sub.Class,
		StudentName:     sub.StudentName,
		ScratchUsername: sub.ScratchUsername,
		ProjectID:       sub.ProjectID,
		ProjectURL:      sub.ProjectURL,
		ProjectEmbed:    sub.ProjectEmbed,
		Features:        sub.Features,
		UserAgent:       sub.UserAgent,
		Gsi1Pk:          gsi1Value,
		CreatedAt:       sub.CreatedAt,
	}
}

func (r SubmissionRow) Row() models.Row {
	features := r.Features
	if features == nil {
		features = []string{}
	}
	return models.Row{
		ID:     r.ID,
		Source: models.SourceRemote,
		Submission: models.Submission{
			Class:           r.Class,
			StudentName:     r.StudentName,
			ScratchUsername: r.ScratchUsername,
			ProjectID:       r.ProjectID,
			ProjectURL:      r.ProjectURL,
			ProjectEmbed:    r.ProjectEmbed,
			Features:        features,
			CreatedAt:       r.CreatedAt,
			UserAgent:       r.UserAgent,
		},
	}
}

type DynamoStore struct {
	ddbClient *dynamodb.Client
	tableName string
	table     *dynamo.Table
}

var _ store.RemoteStore = (*DynamoStore)(nil)

// NewDynamoStore uses the default AWS credential chain. endpoint may point at
// dynamodb-local; empty means the regional AWS endpoint.
func NewDynamoStore(ctx context.Context, tableName, region, endpoint string) (*DynamoStore, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	return NewDynamoStoreFromClient(client, tableName), nil
}

func NewDynamoStoreFromClient(client *dynamodb.Client, tableName string) *DynamoStore {
	ddb := &DynamoStore{
		ddbClient: client,
		tableName: tableName,
	}
	db := dynamo.NewFromIface(ddb.ddbClient)
	table := db.Table(ddb.tableName)
	ddb.table = &table

	return ddb
}

func (ddb *DynamoStore) Append(ctx context.Context, sub models.Submission) (string, error) {
	id := uuid.NewString()
	row := NewSubmissionRow(id, sub)

	if err := ddb.table.Put(row).If("attribute_not_exists(id)").Run(ctx); err != nil {
		return "", fmt.Errorf("failed to put submission: %w", err)
	}
	return id, nil
}

func (ddb *DynamoStore) ListRecent(ctx context.Context, limit int) ([]models.Row, error) {
	if limit <= 0 || limit > store.RemoteListLimit {
		limit = store.RemoteListLimit
	}

	var items []SubmissionRow
	err := ddb.table.Get("gsi1_pk", gsi1Value).
		Index(indexName).
		Order(dynamo.Descending).
		Limit(limit).
		All(ctx, &items)
	if err != nil {
		return nil, fmt.Errorf("failed to query submissions: %w", err)
	}

	out := make([]models.Row, 0, len(items))
	for _, item := range items {
		out = append(out, item.Row())
	}
	return out, nil
}

func (ddb *DynamoStore) Delete(ctx context.Context, id string) error {
	err := ddb.table.Delete("id", id).If("attribute_exists(id)").Run(ctx)
	if dynamo.IsCondCheckFailed(err) {
		return apperror.NotFound("submission", id)
	}
	if err != nil {
		return fmt.Errorf("failed to delete submission %s: %w", id, err)
	}
	return nil
}

func (ddb *DynamoStore) Close() error {
	return nil
}
