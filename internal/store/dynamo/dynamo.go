// Package dynamo implements store.Store on DynamoDB tables keyed by email
// (users, wallet_details) and transaction_id (wallet_transactions).
package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AlexZinkM/chewy-custody/internal/model"
	"github.com/AlexZinkM/chewy-custody/internal/store"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// API is the subset of the DynamoDB client the store uses.
type API interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// Tables names the three tables.
type Tables struct {
	Users        string
	Wallets      string
	Transactions string
}

// Store is a DynamoDB-backed store.Store.
type Store struct {
	db     API
	tables Tables
}

var _ store.Store = (*Store)(nil)

func New(db API, tables Tables) *Store {
	return &Store{db: db, tables: tables}
}

// NewFromConfig builds the DynamoDB client; endpoint overrides the service URL (DynamoDB local).
func NewFromConfig(cfg aws.Config, endpoint string, tables Tables) *Store {
	client := dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	return New(client, tables)
}

func keyOf(name, value string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{name: &types.AttributeValueMemberS{Value: value}}
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", model.ErrStore, op, err)
}

func nowValue() (types.AttributeValue, error) {
	return attributevalue.Marshal(time.Now().UTC())
}

func (s *Store) get(ctx context.Context, table, keyName, key string, out any) (bool, error) {
	res, err := s.db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(table),
		Key:            keyOf(keyName, key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return false, storeErr("get "+table, err)
	}
	if res.Item == nil {
		return false, nil
	}
	if err := attributevalue.UnmarshalMap(res.Item, out); err != nil {
		return false, storeErr("decode "+table, err)
	}
	return true, nil
}

// putIfAbsent writes item only when no row with the same key exists.
func (s *Store) putIfAbsent(ctx context.Context, table, keyName string, item any) error {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return storeErr("encode "+table, err)
	}
	_, err = s.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(table),
		Item:                     av,
		ConditionExpression:      aws.String("attribute_not_exists(#k)"),
		ExpressionAttributeNames: map[string]string{"#k": keyName},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("%w: %s row exists", model.ErrConflict, table)
	}
	if err != nil {
		return storeErr("put "+table, err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, email string) (*model.Identity, error) {
	var u model.Identity
	ok, err := s.get(ctx, s.tables.Users, "email", email, &u)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: user %s", model.ErrNotFound, email)
	}
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, user *model.Identity) error {
	return s.putIfAbsent(ctx, s.tables.Users, "email", user)
}

func (s *Store) updateUser(ctx context.Context, email, expr string, names map[string]string, values map[string]types.AttributeValue) error {
	_, err := s.db.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.tables.Users),
		Key:                       keyOf("email", email),
		UpdateExpression:          aws.String(expr),
		ConditionExpression:       aws.String("attribute_exists(email)"),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	if isConditionFailed(err) {
		return fmt.Errorf("%w: user %s", model.ErrNotFound, email)
	}
	if err != nil {
		return storeErr("update users", err)
	}
	return nil
}

func (s *Store) UpdateUserStatus(ctx context.Context, email string, status model.IdentityStatus) error {
	return s.updateUser(ctx, email, "SET #s = :s",
		map[string]string{"#s": "status"},
		map[string]types.AttributeValue{":s": &types.AttributeValueMemberS{Value: string(status)}})
}

func (s *Store) UpdateRewardPoints(ctx context.Context, email string, points uint64) error {
	return s.updateUser(ctx, email, "SET reward_points = :p", nil,
		map[string]types.AttributeValue{":p": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", points)}})
}

func (s *Store) GetWallet(ctx context.Context, email string) (*model.WalletRecord, error) {
	var w model.WalletRecord
	ok, err := s.get(ctx, s.tables.Wallets, "email", email, &w)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: wallet for %s", model.ErrNotFound, email)
	}
	return &w, nil
}

func (s *Store) CreateWallet(ctx context.Context, wallet *model.WalletRecord) error {
	return s.putIfAbsent(ctx, s.tables.Wallets, "email", wallet)
}

func (s *Store) AdvanceWalletState(ctx context.Context, email string, from, to model.ProvisionState) error {
	now, err := nowValue()
	if err != nil {
		return storeErr("encode time", err)
	}
	_, err = s.db.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                aws.String(s.tables.Wallets),
		Key:                      keyOf("email", email),
		UpdateExpression:         aws.String("SET #st = :to, updated_at = :now REMOVE pending_tx"),
		ConditionExpression:      aws.String("#st = :from"),
		ExpressionAttributeNames: map[string]string{"#st": "state"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":to":   &types.AttributeValueMemberS{Value: string(to)},
			":from": &types.AttributeValueMemberS{Value: string(from)},
			":now":  now,
		},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("%w: wallet for %s is not in state %s", model.ErrConflict, email, from)
	}
	if err != nil {
		return storeErr("advance wallet state", err)
	}
	return nil
}

func (s *Store) SetPendingTx(ctx context.Context, email string, state model.ProvisionState, sig string) error {
	now, err := nowValue()
	if err != nil {
		return storeErr("encode time", err)
	}
	_, err = s.db.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                aws.String(s.tables.Wallets),
		Key:                      keyOf("email", email),
		UpdateExpression:         aws.String("SET pending_tx = :sig, updated_at = :now"),
		ConditionExpression:      aws.String("#st = :state"),
		ExpressionAttributeNames: map[string]string{"#st": "state"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":sig":   &types.AttributeValueMemberS{Value: sig},
			":state": &types.AttributeValueMemberS{Value: string(state)},
			":now":   now,
		},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("%w: wallet for %s is not in state %s", model.ErrConflict, email, state)
	}
	if err != nil {
		return storeErr("set pending transaction", err)
	}
	return nil
}

func (s *Store) UpdateWalletKey(ctx context.Context, email, sealed string) error {
	now, err := nowValue()
	if err != nil {
		return storeErr("encode time", err)
	}
	_, err = s.db.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.tables.Wallets),
		Key:                 keyOf("email", email),
		UpdateExpression:    aws.String("SET sealed_private_key = :k, updated_at = :now REMOVE encrypted_private_key"),
		ConditionExpression: aws.String("attribute_exists(email)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":k":   &types.AttributeValueMemberS{Value: sealed},
			":now": now,
		},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("%w: wallet for %s", model.ErrNotFound, email)
	}
	if err != nil {
		return storeErr("update wallet key", err)
	}
	return nil
}

func (s *Store) ListWallets(ctx context.Context, filter model.WalletFilter) ([]model.WalletRecord, error) {
	in := &dynamodb.ScanInput{TableName: aws.String(s.tables.Wallets)}
	switch {
	case filter.ExcludeState != "":
		in.FilterExpression = aws.String("#st <> :ex")
		in.ExpressionAttributeNames = map[string]string{"#st": "state"}
		in.ExpressionAttributeValues = map[string]types.AttributeValue{
			":ex": &types.AttributeValueMemberS{Value: string(filter.ExcludeState)},
		}
	case filter.LegacyKeyOnly:
		in.FilterExpression = aws.String("attribute_exists(encrypted_private_key)")
	}

	var out []model.WalletRecord
	p := dynamodb.NewScanPaginator(s.db, in)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, storeErr("scan wallets", err)
		}
		var batch []model.WalletRecord
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, storeErr("decode wallets", err)
		}
		for i := range batch {
			if store.MatchWallet(&batch[i], filter) {
				out = append(out, batch[i])
			}
		}
	}
	return out, nil
}

func (s *Store) PutReceipt(ctx context.Context, receipt *model.TransferReceipt) error {
	return s.putIfAbsent(ctx, s.tables.Transactions, "transaction_id", receipt)
}

func (s *Store) GetReceipt(ctx context.Context, txID string) (*model.TransferReceipt, error) {
	var r model.TransferReceipt
	ok, err := s.get(ctx, s.tables.Transactions, "transaction_id", txID, &r)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: receipt %s", model.ErrNotFound, txID)
	}
	return &r, nil
}

func (s *Store) ListReceipts(ctx context.Context, email string) ([]model.TransferReceipt, error) {
	in := &dynamodb.ScanInput{
		TableName:        aws.String(s.tables.Transactions),
		FilterExpression: aws.String("from_email = :e OR to_email = :e"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":e": &types.AttributeValueMemberS{Value: email},
		},
	}

	var out []model.TransferReceipt
	p := dynamodb.NewScanPaginator(s.db, in)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, storeErr("scan receipts", err)
		}
		var batch []model.TransferReceipt
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, storeErr("decode receipts", err)
		}
		out = append(out, batch...)
	}
	return out, nil
}
