/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sdb

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	log "github.com/sirupsen/logrus"

	"github.com/suparena/modelstore/cache"
	"github.com/suparena/modelstore/config"
	"github.com/suparena/modelstore/errors"
	"github.com/suparena/modelstore/sqlbuilder"
	"github.com/suparena/modelstore/storagemodels"
)

// DefaultKeyAttribute is the DynamoDB attribute holding the item name.
const DefaultKeyAttribute = "itemName"

const (
	maxBatchWrite    = 25
	maxBatchAttempts = 3
)

// DynamoAPI is the part of the DynamoDB client the service uses.
type DynamoAPI interface {
	ExecuteStatement(ctx context.Context, in *sdk.ExecuteStatementInput, optFns ...func(*sdk.Options)) (*sdk.ExecuteStatementOutput, error)
	GetItem(ctx context.Context, in *sdk.GetItemInput, optFns ...func(*sdk.Options)) (*sdk.GetItemOutput, error)
	PutItem(ctx context.Context, in *sdk.PutItemInput, optFns ...func(*sdk.Options)) (*sdk.PutItemOutput, error)
	UpdateItem(ctx context.Context, in *sdk.UpdateItemInput, optFns ...func(*sdk.Options)) (*sdk.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, in *sdk.DeleteItemInput, optFns ...func(*sdk.Options)) (*sdk.DeleteItemOutput, error)
	BatchWriteItem(ctx context.Context, in *sdk.BatchWriteItemInput, optFns ...func(*sdk.Options)) (*sdk.BatchWriteItemOutput, error)
}

// DynamoService serves the key-attribute Service over DynamoDB. Each domain
// is a table whose partition key is a string attribute holding the item
// name; every other attribute is a string. Selects run as PartiQL.
type DynamoService struct {
	api     DynamoAPI
	keyAttr string
}

var _ Service = (*DynamoService)(nil)

// NewDynamoService wraps api. An empty keyAttr means DefaultKeyAttribute.
func NewDynamoService(api DynamoAPI, keyAttr string) *DynamoService {
	if keyAttr == "" {
		keyAttr = DefaultKeyAttribute
	}
	return &DynamoService{api: api, keyAttr: keyAttr}
}

// NewDynamoDBClient initializes a DynamoDB client. Static credentials are
// used when an access key is configured; otherwise the default chain
// applies. A custom endpoint targets local emulators.
func NewDynamoDBClient(ctx context.Context, cfg config.Database) (*sdk.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	client := sdk.NewFromConfig(awsCfg, func(o *sdk.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	log.WithField("region", cfg.Region).Info("DynamoDB client initialized")
	return client, nil
}

// Open builds a Conn for the config group name over DynamoDB.
func Open(ctx context.Context, name string, cfg config.Database, p cache.Provider, opts ...Option) (*Conn, error) {
	if cfg.Region == "" && cfg.Endpoint == "" {
		return nil, errors.NewConfigurationError(name, "key-attribute store needs a region or an endpoint", nil)
	}
	client, err := NewDynamoDBClient(ctx, cfg)
	if err != nil {
		return nil, errors.NewConfigurationError(name, "cannot create DynamoDB client", err)
	}

	var pageOpts []storagemodels.PageOption
	if cfg.PageSize > 0 {
		pageOpts = append(pageOpts, storagemodels.WithPageSize(cfg.PageSize))
	}
	if cfg.MaxQueries > 0 {
		pageOpts = append(pageOpts, storagemodels.WithMaxQueries(cfg.MaxQueries))
	}
	if cfg.TokenTTL > 0 {
		pageOpts = append(pageOpts, storagemodels.WithTokenTTL(cfg.TokenTTL))
	}
	all := append([]Option{WithCache(p), WithPageOptions(pageOpts...)}, opts...)
	return New(name, NewDynamoService(client, cfg.KeyAttribute), all...), nil
}

// Select runs one page. COUNT(*) is answered by counting the page, since
// PartiQL has no aggregates; the page count comes back as a "Count"
// attribute like the native select does.
func (s *DynamoService) Select(ctx context.Context, req storagemodels.SelectRequest) (*storagemodels.SelectPage, error) {
	stmt, limit, counting := s.translate(req.Expression)
	in := &sdk.ExecuteStatementInput{
		Statement:      aws.String(stmt),
		ConsistentRead: aws.Bool(req.ConsistentRead),
	}
	if limit > 0 {
		in.Limit = aws.Int32(int32(limit))
	}
	if req.NextToken != "" {
		in.NextToken = aws.String(req.NextToken)
	}

	out, err := s.api.ExecuteStatement(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("ExecuteStatement error: %w", err)
	}

	page := &storagemodels.SelectPage{NextToken: aws.ToString(out.NextToken)}
	if counting {
		page.Items = []storagemodels.Item{{
			Name:       "Domain",
			Attributes: []storagemodels.Attribute{{Name: "Count", Value: strconv.Itoa(len(out.Items))}},
		}}
		return page, nil
	}
	for _, raw := range out.Items {
		item, err := s.toItem(raw)
		if err != nil {
			return nil, err
		}
		page.Items = append(page.Items, item)
	}
	return page, nil
}

// translate turns a select expression into PartiQL. Backquoted names become
// double-quoted, double-quoted strings become single-quoted, itemName()
// becomes the key attribute and a trailing "limit n" is returned separately.
func (s *DynamoService) translate(expr string) (string, int, bool) {
	limit := 0
	if i := sqlbuilder.IndexOutsideQuotes(expr, "limit"); i >= 0 {
		if n, err := leadingInt(expr[i+len("limit"):]); err == nil {
			limit = n
			expr = strings.TrimSpace(expr[:i])
		}
	}
	counting := isCount(expr)

	var b strings.Builder
	for i := 0; i < len(expr); i++ {
		c := expr[i]
		switch c {
		case '\'':
			j := sqlbuilder.QuotedEnd(expr, i)
			b.WriteString(expr[i : j+1])
			i = j
		case '"':
			j := sqlbuilder.QuotedEnd(expr, i)
			b.WriteString(sqlbuilder.QuoteString(sqlbuilder.Unquote(expr[i : j+1])))
			i = j
		case '`':
			j := sqlbuilder.QuotedEnd(expr, i)
			b.WriteString(quoteIdent(sqlbuilder.Unquote(expr[i : j+1])))
			i = j
		default:
			if strings.HasPrefix(strings.ToLower(expr[i:]), strings.ToLower(itemNameFunc)) {
				b.WriteString(quoteIdent(s.keyAttr))
				i += len(itemNameFunc) - 1
				continue
			}
			b.WriteByte(c)
		}
	}
	stmt := b.String()
	if counting {
		f := sqlbuilder.IndexOutsideQuotes(stmt, "FROM")
		stmt = "SELECT " + quoteIdent(s.keyAttr) + " " + stmt[f:]
	}
	return stmt, limit, counting
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (s *DynamoService) toItem(raw map[string]types.AttributeValue) (storagemodels.Item, error) {
	var values map[string]any
	if err := attributevalue.UnmarshalMap(raw, &values); err != nil {
		return storagemodels.Item{}, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	item := storagemodels.Item{Name: EncodeValue(values[s.keyAttr])}
	names := make([]string, 0, len(values))
	for name := range values {
		if name != s.keyAttr {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		item.Attributes = append(item.Attributes, storagemodels.Attribute{Name: name, Value: EncodeValue(values[name])})
	}
	return item, nil
}

func (s *DynamoService) key(item string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{s.keyAttr: &types.AttributeValueMemberS{Value: item}}
}

// GetAttributes reads one item; a missing item has no attributes.
func (s *DynamoService) GetAttributes(ctx context.Context, domain, item string, consistent bool) ([]storagemodels.Attribute, error) {
	out, err := s.api.GetItem(ctx, &sdk.GetItemInput{
		TableName:      aws.String(domain),
		Key:            s.key(item),
		ConsistentRead: aws.Bool(consistent),
	})
	if err != nil {
		return nil, fmt.Errorf("GetItem error: %w", err)
	}
	if out.Item == nil {
		return nil, nil
	}
	it, err := s.toItem(out.Item)
	if err != nil {
		return nil, err
	}
	return it.Attributes, nil
}

// PutAttributes writes a whole item, or with replace sets only the named
// attributes of an existing one.
func (s *DynamoService) PutAttributes(ctx context.Context, domain, item string, attrs []storagemodels.Attribute, replace bool) error {
	if !replace {
		av := s.key(item)
		for _, a := range attrs {
			av[a.Name] = &types.AttributeValueMemberS{Value: a.Value}
		}
		if _, err := s.api.PutItem(ctx, &sdk.PutItemInput{TableName: aws.String(domain), Item: av}); err != nil {
			return fmt.Errorf("PutItem failed: %w", err)
		}
		return nil
	}

	if len(attrs) == 0 {
		return nil
	}
	sets := make([]string, 0, len(attrs))
	names := make(map[string]string, len(attrs))
	values := make(map[string]types.AttributeValue, len(attrs))
	for i, a := range attrs {
		n, v := fmt.Sprintf("#f%d", i), fmt.Sprintf(":v%d", i)
		sets = append(sets, n+" = "+v)
		names[n] = a.Name
		values[v] = &types.AttributeValueMemberS{Value: a.Value}
	}
	_, err := s.api.UpdateItem(ctx, &sdk.UpdateItemInput{
		TableName:                 aws.String(domain),
		Key:                       s.key(item),
		UpdateExpression:          aws.String("SET " + strings.Join(sets, ", ")),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	if err != nil {
		return fmt.Errorf("UpdateItem failed: %w", err)
	}
	return nil
}

// DeleteAttributes removes named attributes, or the item when none are named.
func (s *DynamoService) DeleteAttributes(ctx context.Context, domain, item string, names ...string) error {
	if len(names) == 0 {
		if _, err := s.api.DeleteItem(ctx, &sdk.DeleteItemInput{TableName: aws.String(domain), Key: s.key(item)}); err != nil {
			return fmt.Errorf("failed to delete item in DynamoDB: %w", err)
		}
		return nil
	}
	removes := make([]string, len(names))
	exprNames := make(map[string]string, len(names))
	for i, name := range names {
		p := fmt.Sprintf("#r%d", i)
		removes[i] = p
		exprNames[p] = name
	}
	_, err := s.api.UpdateItem(ctx, &sdk.UpdateItemInput{
		TableName:                aws.String(domain),
		Key:                      s.key(item),
		UpdateExpression:         aws.String("REMOVE " + strings.Join(removes, ", ")),
		ExpressionAttributeNames: exprNames,
	})
	if err != nil {
		return fmt.Errorf("UpdateItem failed: %w", err)
	}
	return nil
}

// BatchDeleteAttributes deletes items in groups of 25, resubmitting
// unprocessed requests a bounded number of times.
func (s *DynamoService) BatchDeleteAttributes(ctx context.Context, domain string, items []string) error {
	for start := 0; start < len(items); start += maxBatchWrite {
		end := start + maxBatchWrite
		if end > len(items) {
			end = len(items)
		}
		reqs := make([]types.WriteRequest, 0, end-start)
		for _, item := range items[start:end] {
			reqs = append(reqs, types.WriteRequest{DeleteRequest: &types.DeleteRequest{Key: s.key(item)}})
		}
		pending := map[string][]types.WriteRequest{domain: reqs}
		for attempt := 0; len(pending[domain]) > 0; attempt++ {
			if attempt == maxBatchAttempts {
				return fmt.Errorf("BatchWriteItem left %d deletes unprocessed", len(pending[domain]))
			}
			out, err := s.api.BatchWriteItem(ctx, &sdk.BatchWriteItemInput{RequestItems: pending})
			if err != nil {
				return fmt.Errorf("BatchWriteItem failed: %w", err)
			}
			pending = out.UnprocessedItems
		}
	}
	return nil
}
