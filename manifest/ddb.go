package manifest

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DDBClient is the subset of *dynamodb.Client a DDBStore needs; satisfied by
// *dynamodb.Client and easily faked in tests.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// ErrConcurrentModification is returned when two writers race to commit a
// manifest pointer for the same base URI.
var ErrConcurrentModification = errors.New("manifest: concurrent modification detected")

// DDBStore commits a {base_uri, version} -> manifest-key pointer row to
// DynamoDB using a conditional write, so two concurrent runs writing
// manifests under the same output prefix (e.g. two shots of the same
// experiment sweep, run from a pool.Run batch) cannot silently clobber each
// other's "latest manifest" pointer the way two racing S3 PutObject calls
// to a fixed key would.
//
// Table schema:
//   - Partition key: base_uri (string) — the S3/MinIO prefix a run's sample
//     stream and manifest are written under.
//   - Sort key: version (number) — monotonically increasing per base_uri.
type DDBStore struct {
	client    DDBClient
	tableName string
}

// NewDDBStore returns a DDBStore committing pointer rows to tableName.
func NewDDBStore(client DDBClient, tableName string) *DDBStore {
	return &DDBStore{client: client, tableName: tableName}
}

// Latest returns the highest committed version and its manifest key for
// baseURI, or version 0 if nothing has been committed yet.
func (s *DDBStore) Latest(ctx context.Context, baseURI string) (version uint64, manifestKey string, err error) {
	resp, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("base_uri = :uri"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uri": &types.AttributeValueMemberS{Value: baseURI},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(1),
	})
	if err != nil {
		return 0, "", fmt.Errorf("manifest: querying DynamoDB: %w", err)
	}
	if len(resp.Items) == 0 {
		return 0, "", nil
	}
	item := resp.Items[0]
	versionAttr, ok := item["version"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, "", errors.New("manifest: invalid version attribute in DynamoDB item")
	}
	keyAttr, ok := item["manifest_key"].(*types.AttributeValueMemberS)
	if !ok {
		return 0, "", errors.New("manifest: invalid manifest_key attribute in DynamoDB item")
	}
	if _, err := fmt.Sscanf(versionAttr.Value, "%d", &version); err != nil {
		return 0, "", fmt.Errorf("manifest: parsing version: %w", err)
	}
	return version, keyAttr.Value, nil
}

// Commit atomically advances baseURI's pointer to manifestKey at the next
// version, failing with ErrConcurrentModification if another writer
// committed that version first.
func (s *DDBStore) Commit(ctx context.Context, baseURI, manifestKey string) error {
	currentVersion, _, err := s.Latest(ctx, baseURI)
	if err != nil {
		return err
	}
	newVersion := currentVersion + 1

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			"base_uri":     &types.AttributeValueMemberS{Value: baseURI},
			"version":      &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", newVersion)},
			"manifest_key": &types.AttributeValueMemberS{Value: manifestKey},
		},
		ConditionExpression: aws.String("attribute_not_exists(version)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return ErrConcurrentModification
		}
		return fmt.Errorf("manifest: committing version to DynamoDB: %w", err)
	}
	return nil
}
