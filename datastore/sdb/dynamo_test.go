/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sdb

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/modelstore/config"
	"github.com/suparena/modelstore/errors"
	"github.com/suparena/modelstore/storagemodels"
)

// fakeDynamo records requests and answers with canned outputs.
type fakeDynamo struct {
	statements []*sdk.ExecuteStatementInput
	pages      []*sdk.ExecuteStatementOutput
	items      map[string]map[string]types.AttributeValue
	puts       []*sdk.PutItemInput
	updates    []*sdk.UpdateItemInput
	deletes    []*sdk.DeleteItemInput
	batches    []*sdk.BatchWriteItemInput
	unprocess  int
}

func (f *fakeDynamo) ExecuteStatement(_ context.Context, in *sdk.ExecuteStatementInput, _ ...func(*sdk.Options)) (*sdk.ExecuteStatementOutput, error) {
	f.statements = append(f.statements, in)
	if len(f.pages) == 0 {
		return &sdk.ExecuteStatementOutput{}, nil
	}
	out := f.pages[0]
	f.pages = f.pages[1:]
	return out, nil
}

func (f *fakeDynamo) GetItem(_ context.Context, in *sdk.GetItemInput, _ ...func(*sdk.Options)) (*sdk.GetItemOutput, error) {
	key := in.Key["itemName"].(*types.AttributeValueMemberS).Value
	return &sdk.GetItemOutput{Item: f.items[key]}, nil
}

func (f *fakeDynamo) PutItem(_ context.Context, in *sdk.PutItemInput, _ ...func(*sdk.Options)) (*sdk.PutItemOutput, error) {
	f.puts = append(f.puts, in)
	return &sdk.PutItemOutput{}, nil
}

func (f *fakeDynamo) UpdateItem(_ context.Context, in *sdk.UpdateItemInput, _ ...func(*sdk.Options)) (*sdk.UpdateItemOutput, error) {
	f.updates = append(f.updates, in)
	return &sdk.UpdateItemOutput{}, nil
}

func (f *fakeDynamo) DeleteItem(_ context.Context, in *sdk.DeleteItemInput, _ ...func(*sdk.Options)) (*sdk.DeleteItemOutput, error) {
	f.deletes = append(f.deletes, in)
	return &sdk.DeleteItemOutput{}, nil
}

func (f *fakeDynamo) BatchWriteItem(_ context.Context, in *sdk.BatchWriteItemInput, _ ...func(*sdk.Options)) (*sdk.BatchWriteItemOutput, error) {
	f.batches = append(f.batches, in)
	out := &sdk.BatchWriteItemOutput{}
	if f.unprocess > 0 {
		f.unprocess--
		for table, reqs := range in.RequestItems {
			out.UnprocessedItems = map[string][]types.WriteRequest{table: reqs[:1]}
		}
	}
	return out, nil
}

// scanDynamo answers statements the way DynamoDB does: Limit caps the items
// evaluated, and the brand filter is applied to those items afterwards.
type scanDynamo struct {
	fakeDynamo
	rows []map[string]types.AttributeValue
}

func newScanDynamo(n int, brandAt map[int]string) *scanDynamo {
	f := &scanDynamo{}
	for i := 0; i < n; i++ {
		brand := "Fiat"
		if b, ok := brandAt[i]; ok {
			brand = b
		}
		f.rows = append(f.rows, map[string]types.AttributeValue{
			"itemName": strAttr(fmt.Sprintf("car-%05d", i)),
			"brand":    strAttr(brand),
		})
	}
	return f
}

func (f *scanDynamo) ExecuteStatement(_ context.Context, in *sdk.ExecuteStatementInput, _ ...func(*sdk.Options)) (*sdk.ExecuteStatementOutput, error) {
	f.statements = append(f.statements, in)
	stmt := aws.ToString(in.Statement)

	want := ""
	if i := strings.Index(stmt, `"brand" = '`); i >= 0 {
		rest := stmt[i+len(`"brand" = '`):]
		want = rest[:strings.IndexByte(rest, '\'')]
	}

	start := 0
	if in.NextToken != nil {
		start, _ = strconv.Atoi(aws.ToString(in.NextToken))
	}
	end := len(f.rows)
	if in.Limit != nil && start+int(*in.Limit) < end {
		end = start + int(*in.Limit)
	}

	out := &sdk.ExecuteStatementOutput{}
	for _, row := range f.rows[start:end] {
		if want == "" || row["brand"].(*types.AttributeValueMemberS).Value == want {
			out.Items = append(out.Items, row)
		}
	}
	if end < len(f.rows) {
		out.NextToken = aws.String(strconv.Itoa(end))
	}
	return out, nil
}

// BatchWriteItem removes the deleted rows so later scans no longer see them.
func (f *scanDynamo) BatchWriteItem(ctx context.Context, in *sdk.BatchWriteItemInput, opts ...func(*sdk.Options)) (*sdk.BatchWriteItemOutput, error) {
	gone := make(map[string]bool)
	for _, reqs := range in.RequestItems {
		for _, r := range reqs {
			gone[r.DeleteRequest.Key["itemName"].(*types.AttributeValueMemberS).Value] = true
		}
	}
	kept := f.rows[:0]
	for _, row := range f.rows {
		if !gone[row["itemName"].(*types.AttributeValueMemberS).Value] {
			kept = append(kept, row)
		}
	}
	f.rows = kept
	return f.fakeDynamo.BatchWriteItem(ctx, in, opts...)
}

func TestDynamoService_FilteredFindPastFirstPages(t *testing.T) {
	api := newScanDynamo(150, map[int]string{120: "Target"})
	c := New("items", NewDynamoService(api, ""))

	_, vals := query(t, context.Background(), c, "SELECT * FROM `cars` WHERE `brand` = ? LIMIT 1", "Target")
	require.Len(t, vals, 1)
	assert.Equal(t, "car-00120", vals[0][0])
	require.Len(t, api.statements, 2, "two pages of 100 evaluated items cover the table")
	for _, in := range api.statements {
		assert.Equal(t, int32(100), aws.ToInt32(in.Limit), "the page size does not shrink to the window")
	}
}

func TestDynamoService_FilteredFindMissingIsEmpty(t *testing.T) {
	api := newScanDynamo(150, nil)
	c := New("items", NewDynamoService(api, ""))

	_, vals := query(t, context.Background(), c, "SELECT * FROM `cars` WHERE `brand` = ? LIMIT 1", "Target")
	assert.Empty(t, vals)
	assert.Len(t, api.statements, 2)
}

func TestDynamoService_ScanBoundIsAnError(t *testing.T) {
	ctx := context.Background()
	api := newScanDynamo(150, map[int]string{120: "Target"})
	c := New("items", NewDynamoService(api, ""),
		WithPageOptions(storagemodels.WithPageSize(10), storagemodels.WithMaxQueries(5)))

	st, err := c.Prepare(ctx, "SELECT * FROM `cars` WHERE `brand` = ? LIMIT 1")
	require.NoError(t, err)
	rows, err := st.Query(ctx, "Target")
	assert.Nil(t, rows)
	require.Error(t, err)
	assert.True(t, errors.IsStorageError(err))
	assert.True(t, errors.IsQueryBoundExceeded(err))
	assert.Len(t, api.statements, 5)
}

func TestDynamoService_CountBeyondQueryBound(t *testing.T) {
	ctx := context.Background()
	api := newScanDynamo(12000, nil)
	c := New("items", NewDynamoService(api, ""))

	st, err := c.Prepare(ctx, "SELECT COUNT(*) FROM `cars`")
	require.NoError(t, err)
	_, err = st.Query(ctx)
	require.Error(t, err, "a partial sum is never reported as the count")
	assert.True(t, errors.IsQueryBoundExceeded(err))
	assert.Len(t, api.statements, 100)

	api.statements = nil
	c = New("items", NewDynamoService(api, ""), WithPageOptions(storagemodels.WithMaxQueries(200)))
	_, vals := query(t, ctx, c, "SELECT COUNT(*) FROM `cars`")
	require.Len(t, vals, 1)
	assert.Equal(t, int64(12000), vals[0][0])
	assert.Len(t, api.statements, 120)
}

func TestDynamoService_PredicateDeleteFollowsEmptyPages(t *testing.T) {
	ctx := WithConsistentRead(context.Background(), false)
	api := newScanDynamo(80, map[int]string{76: "Target", 78: "Target"})
	c := New("items", NewDynamoService(api, ""))

	res, err := exec(t, ctx, c, "DELETE FROM `cars` WHERE `brand` = ?", "Target")
	require.NoError(t, err)
	n, _ := res.RowsAffected()
	assert.Equal(t, int64(2), n)
	require.Len(t, api.batches, 1)
	assert.Len(t, api.batches[0].RequestItems["cars"], 2)
	require.Len(t, api.statements, 4, "three pages of 25 evaluated items hold nothing, the fourth holds both")
	assert.Len(t, api.rows, 78)
	for _, in := range api.statements {
		assert.False(t, aws.ToBool(in.ConsistentRead))
	}
}

func strAttr(v string) types.AttributeValue { return &types.AttributeValueMemberS{Value: v} }

func TestDynamoService_Translate(t *testing.T) {
	s := NewDynamoService(&fakeDynamo{}, "")

	stmt, limit, counting := s.translate("SELECT * FROM `cars` WHERE itemName() = '5' AND `brand` = \"it's\" limit 10")
	assert.Equal(t, `SELECT * FROM "cars" WHERE "itemName" = '5' AND "brand" = 'it''s'`, stmt)
	assert.Equal(t, 10, limit)
	assert.False(t, counting)

	stmt, limit, counting = s.translate("SELECT COUNT(*) FROM `cars` WHERE `doors` = '4' limit 7")
	assert.Equal(t, `SELECT "itemName" FROM "cars" WHERE "doors" = '4'`, stmt)
	assert.Equal(t, 7, limit)
	assert.True(t, counting)

	stmt, limit, _ = NewDynamoService(&fakeDynamo{}, "pk").translate("select itemName() from `cars` where `note` = 'limit 3'")
	assert.Equal(t, `select "pk" from "cars" where "note" = 'limit 3'`, stmt)
	assert.Equal(t, 0, limit)
}

func TestDynamoService_Select(t *testing.T) {
	api := &fakeDynamo{pages: []*sdk.ExecuteStatementOutput{{
		Items: []map[string]types.AttributeValue{
			{"itemName": strAttr("c1"), "brand": strAttr("Fiat"), "doors": strAttr("3")},
			{"itemName": strAttr("c2"), "brand": strAttr("Lancia")},
		},
		NextToken: aws.String("next-1"),
	}}}
	s := NewDynamoService(api, "")

	page, err := s.Select(context.Background(), storagemodels.SelectRequest{
		Expression:     "SELECT * FROM `cars` limit 2",
		NextToken:      "prev",
		ConsistentRead: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "next-1", page.NextToken)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "c1", page.Items[0].Name)
	assert.Equal(t, []storagemodels.Attribute{{Name: "brand", Value: "Fiat"}, {Name: "doors", Value: "3"}}, page.Items[0].Attributes)

	in := api.statements[0]
	assert.Equal(t, `SELECT * FROM "cars"`, aws.ToString(in.Statement))
	assert.Equal(t, int32(2), aws.ToInt32(in.Limit))
	assert.Equal(t, "prev", aws.ToString(in.NextToken))
	assert.True(t, aws.ToBool(in.ConsistentRead))
}

func TestDynamoService_CountThroughConn(t *testing.T) {
	page := func(n int, next string) *sdk.ExecuteStatementOutput {
		out := &sdk.ExecuteStatementOutput{}
		for i := 0; i < n; i++ {
			out.Items = append(out.Items, map[string]types.AttributeValue{"itemName": strAttr("x")})
		}
		if next != "" {
			out.NextToken = aws.String(next)
		}
		return out
	}
	api := &fakeDynamo{pages: []*sdk.ExecuteStatementOutput{page(3, "a"), page(3, "b"), page(1, "")}}
	c := New("items", NewDynamoService(api, ""), WithPageOptions(storagemodels.WithPageSize(3)))

	_, vals := query(t, context.Background(), c, "SELECT COUNT(*) FROM `cars`")
	require.Len(t, vals, 1)
	assert.Equal(t, int64(7), vals[0][0])
	assert.Len(t, api.statements, 3)
}

func TestDynamoService_Mutations(t *testing.T) {
	ctx := context.Background()
	api := &fakeDynamo{items: map[string]map[string]types.AttributeValue{
		"c1": {"itemName": strAttr("c1"), "brand": strAttr("Fiat")},
	}}
	s := NewDynamoService(api, "")

	attrs, err := s.GetAttributes(ctx, "cars", "c1", true)
	require.NoError(t, err)
	assert.Equal(t, []storagemodels.Attribute{{Name: "brand", Value: "Fiat"}}, attrs)
	attrs, err = s.GetAttributes(ctx, "cars", "missing", true)
	require.NoError(t, err)
	assert.Empty(t, attrs)

	require.NoError(t, s.PutAttributes(ctx, "cars", "c2", []storagemodels.Attribute{{Name: "brand", Value: "Lancia"}}, false))
	require.Len(t, api.puts, 1)
	assert.Equal(t, strAttr("c2"), api.puts[0].Item["itemName"])
	assert.Equal(t, strAttr("Lancia"), api.puts[0].Item["brand"])

	require.NoError(t, s.PutAttributes(ctx, "cars", "c2", []storagemodels.Attribute{{Name: "doors", Value: "2"}}, true))
	require.Len(t, api.updates, 1)
	assert.Equal(t, "SET #f0 = :v0", aws.ToString(api.updates[0].UpdateExpression))
	assert.Equal(t, "doors", api.updates[0].ExpressionAttributeNames["#f0"])

	require.NoError(t, s.DeleteAttributes(ctx, "cars", "c2", "notes[0]", "notes[1]"))
	require.Len(t, api.updates, 2)
	assert.Equal(t, "REMOVE #r0, #r1", aws.ToString(api.updates[1].UpdateExpression))

	require.NoError(t, s.DeleteAttributes(ctx, "cars", "c2"))
	assert.Len(t, api.deletes, 1)
}

func TestDynamoService_BatchDelete(t *testing.T) {
	ctx := context.Background()
	names := make([]string, 30)
	for i := range names {
		names[i] = string(rune('a'+i%26)) + string(rune('0'+i/26))
	}

	api := &fakeDynamo{unprocess: 1}
	s := NewDynamoService(api, "")
	require.NoError(t, s.BatchDeleteAttributes(ctx, "cars", names))
	require.Len(t, api.batches, 3, "25, the unprocessed retry, then 5")
	assert.Len(t, api.batches[0].RequestItems["cars"], 25)
	assert.Len(t, api.batches[1].RequestItems["cars"], 1)
	assert.Len(t, api.batches[2].RequestItems["cars"], 5)

	stuck := &fakeDynamo{unprocess: 10}
	err := NewDynamoService(stuck, "").BatchDeleteAttributes(ctx, "cars", names[:2])
	assert.Error(t, err)
	assert.Len(t, stuck.batches, maxBatchAttempts)
}

func TestOpen_NeedsRegionOrEndpoint(t *testing.T) {
	_, err := Open(context.Background(), "items", config.Database{Type: "sdb"}, nil)
	assert.True(t, errors.IsConfigurationError(err))
}
