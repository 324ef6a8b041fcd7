package repo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"time"

	elasticsearch "github.com/elastic/go-elasticsearch/v7"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"crm/config"
	"crm/entity"
	"crm/pkg/errutil"
	"crm/pkg/goutil"
)

var (
	ErrCustomerNotFound = errutil.NotFoundError(errors.New("customer not found"))
)

type CustomerFilter struct {
	Segment    *string
	Keyword    *string
	Pagination *Pagination
}

func (f *CustomerFilter) GetSegment() string {
	if f != nil && f.Segment != nil {
		return *f.Segment
	}
	return ""
}

func (f *CustomerFilter) GetKeyword() string {
	if f != nil && f.Keyword != nil {
		return *f.Keyword
	}
	return ""
}

type CustomerRepo interface {
	GetByID(ctx context.Context, id string) (*entity.Customer, error)
	GetMany(ctx context.Context, f *CustomerFilter) ([]*entity.Customer, *Pagination, error)
	Count(ctx context.Context, f *CustomerFilter) (uint64, error)
	GetBySegment(ctx context.Context, segment *entity.Segment, from, size int) ([]*entity.Customer, error)
	CountBySegment(ctx context.Context, segment *entity.Segment) (uint64, error)
	BatchCreate(ctx context.Context, customers []*entity.Customer) error
}

type customerRepo struct {
	client *elasticsearch.Client
	index  string
}

func NewCustomerRepo(_ context.Context, cfg config.Elasticsearch) (CustomerRepo, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addr,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, err
	}
	return &customerRepo{
		client: client,
		index:  cfg.Index,
	}, nil
}

// BuildSegmentQuery turns segment rules into a customer store query.
// AND joins rules under must, OR under should with at least one match.
// Rule operators and values are validated here: numeric fields accept
// all operators, text fields only equality and inequality.
func BuildSegmentQuery(segment *entity.Segment) (map[string]interface{}, error) {
	if err := segment.Validate(); err != nil {
		return nil, err
	}

	clauses := make([]interface{}, 0, len(segment.GetRules()))
	for _, rule := range segment.GetRules() {
		clause, err := buildRuleClause(rule)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, clause)
	}

	if segment.GetOperator() == entity.QueryOpOr {
		return map[string]interface{}{
			"bool": map[string]interface{}{
				"should":               clauses,
				"minimum_should_match": 1,
			},
		}, nil
	}

	return map[string]interface{}{
		"bool": map[string]interface{}{
			"must": clauses,
		},
	}, nil
}

func buildRuleClause(rule *entity.Rule) (map[string]interface{}, error) {
	field, ok := entity.StoreField(rule.GetField())
	if !ok {
		return nil, errutil.ValidationError(fmt.Errorf("unknown rule field: %s", rule.GetField()))
	}

	if rule.GetField() == entity.RuleFieldLastVisit {
		return buildLastVisitClause(rule, field)
	}

	var (
		value     interface{} = rule.GetValue()
		termField             = field
	)
	if entity.IsNumericRuleField(rule.GetField()) {
		n, err := strconv.ParseFloat(rule.GetValue(), 64)
		if err != nil {
			return nil, errutil.ValidationError(
				fmt.Errorf("rule value for %s must be numeric, got %q", rule.GetField(), rule.GetValue()))
		}
		value = n
	} else {
		// Text fields are analyzed under the index's dynamic mapping,
		// so exact matches must go through the keyword subfield.
		termField = keywordField(field)
	}

	switch rule.GetOp() {
	case entity.RuleOpEq:
		return map[string]interface{}{
			"term": map[string]interface{}{termField: value},
		}, nil
	case entity.RuleOpNeq:
		return map[string]interface{}{
			"bool": map[string]interface{}{
				"must_not": []interface{}{
					map[string]interface{}{
						"term": map[string]interface{}{termField: value},
					},
				},
			},
		}, nil
	case entity.RuleOpGt, entity.RuleOpGte, entity.RuleOpLt, entity.RuleOpLte:
		if !entity.IsNumericRuleField(rule.GetField()) {
			return nil, errutil.ValidationError(
				fmt.Errorf("operator %s is not allowed on field %s", rule.GetOp(), rule.GetField()))
		}
		return map[string]interface{}{
			"range": map[string]interface{}{
				field: map[string]interface{}{rangeKey(rule.GetOp()): value},
			},
		}, nil
	default:
		return nil, errutil.ValidationError(fmt.Errorf("unknown rule operator: %s", rule.GetOp()))
	}
}

func keywordField(field string) string {
	return field + ".keyword"
}

// Months in lastVisit rules are 30-day windows against the stored visit
// timestamp.
const lastVisitMonthSeconds = 30 * 24 * 60 * 60

// buildLastVisitClause turns a months-ago recency rule into a range on
// the visit timestamp. "lastVisit >= 6" selects customers whose last
// visit was at least six months ago, so the comparison flips direction
// against the timestamp.
func buildLastVisitClause(rule *entity.Rule, field string) (map[string]interface{}, error) {
	months, err := strconv.ParseFloat(rule.GetValue(), 64)
	if err != nil {
		return nil, errutil.ValidationError(
			fmt.Errorf("rule value for %s must be numeric, got %q", rule.GetField(), rule.GetValue()))
	}

	cutoff := float64(time.Now().Unix()) - months*lastVisitMonthSeconds

	var key string
	switch rule.GetOp() {
	case entity.RuleOpGt:
		key = "lt"
	case entity.RuleOpGte:
		key = "lte"
	case entity.RuleOpLt:
		key = "gt"
	case entity.RuleOpLte:
		key = "gte"
	case entity.RuleOpEq, entity.RuleOpNeq:
		return nil, errutil.ValidationError(
			fmt.Errorf("operator %s is not allowed on field %s", rule.GetOp(), rule.GetField()))
	default:
		return nil, errutil.ValidationError(fmt.Errorf("unknown rule operator: %s", rule.GetOp()))
	}

	return map[string]interface{}{
		"range": map[string]interface{}{
			field: map[string]interface{}{key: cutoff},
		},
	}, nil
}

func rangeKey(op string) string {
	switch op {
	case entity.RuleOpGt:
		return "gt"
	case entity.RuleOpGte:
		return "gte"
	case entity.RuleOpLt:
		return "lt"
	default:
		return "lte"
	}
}

func buildCustomerFilterQuery(f *CustomerFilter) map[string]interface{} {
	clauses := make([]interface{}, 0)
	if f.GetSegment() != "" {
		clauses = append(clauses, map[string]interface{}{
			"term": map[string]interface{}{keywordField("segment"): f.GetSegment()},
		})
	}
	if f.GetKeyword() != "" {
		clauses = append(clauses, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  f.GetKeyword(),
				"fields": []string{"name", "email"},
			},
		})
	}

	if len(clauses) == 0 {
		return map[string]interface{}{"match_all": map[string]interface{}{}}
	}

	return map[string]interface{}{
		"bool": map[string]interface{}{"must": clauses},
	}
}

type customerDoc struct {
	Name       *string  `json:"name,omitempty"`
	Email      *string  `json:"email,omitempty"`
	Phone      *string  `json:"phone,omitempty"`
	Segment    *string  `json:"segment,omitempty"`
	TotalSpend *float64 `json:"total_spend,omitempty"`
	VisitCount *uint64  `json:"visit_count,omitempty"`
	LastVisit  *uint64  `json:"last_visit,omitempty"`
	CreateTime *uint64  `json:"create_time,omitempty"`
	UpdateTime *uint64  `json:"update_time,omitempty"`
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID     string      `json:"_id"`
			Source customerDoc `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

type countResponse struct {
	Count int64 `json:"count"`
}

func (r *customerRepo) GetByID(ctx context.Context, id string) (*entity.Customer, error) {
	res, err := r.client.Get(r.index, id, r.client.Get.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode == 404 {
		return nil, ErrCustomerNotFound
	}
	if res.IsError() {
		return nil, fmt.Errorf("get customer: %s", res.String())
	}

	var doc struct {
		ID     string      `json:"_id"`
		Source customerDoc `json:"_source"`
	}
	if err := json.NewDecoder(res.Body).Decode(&doc); err != nil {
		return nil, err
	}

	return toCustomer(doc.ID, doc.Source), nil
}

func (r *customerRepo) GetMany(ctx context.Context, f *CustomerFilter) ([]*entity.Customer, *Pagination, error) {
	pagination := f.Pagination
	if pagination == nil {
		pagination = new(Pagination)
	}

	var (
		limit = pagination.GetLimit()
		page  = pagination.GetPage()
	)
	if limit == 0 {
		limit = 10
	}
	if page == 0 {
		page = 1
	}

	query := buildCustomerFilterQuery(f)
	customers, total, err := r.search(ctx, query, int((page-1)*limit), int(limit+1))
	if err != nil {
		return nil, nil, err
	}

	var hasNext bool
	if len(customers) > int(limit) {
		hasNext = true
		customers = customers[:limit]
	}

	return customers, &Pagination{
		Page:    goutil.Uint32(page),
		Limit:   goutil.Uint32(limit),
		HasNext: goutil.Bool(hasNext),
		Total:   goutil.Int64(total),
	}, nil
}

func (r *customerRepo) Count(ctx context.Context, f *CustomerFilter) (uint64, error) {
	return r.count(ctx, buildCustomerFilterQuery(f))
}

func (r *customerRepo) GetBySegment(ctx context.Context, segment *entity.Segment, from, size int) ([]*entity.Customer, error) {
	query, err := BuildSegmentQuery(segment)
	if err != nil {
		return nil, err
	}

	customers, _, err := r.search(ctx, query, from, size)
	if err != nil {
		return nil, err
	}
	return customers, nil
}

func (r *customerRepo) CountBySegment(ctx context.Context, segment *entity.Segment) (uint64, error) {
	query, err := BuildSegmentQuery(segment)
	if err != nil {
		return 0, err
	}
	return r.count(ctx, query)
}

func (r *customerRepo) BatchCreate(ctx context.Context, customers []*entity.Customer) error {
	var buf bytes.Buffer
	for _, customer := range customers {
		id := customer.GetID()
		if id == "" {
			id = uuid.New().String()
			customer.ID = goutil.String(id)
		}

		meta, err := json.Marshal(map[string]interface{}{
			"index": map[string]interface{}{"_id": id},
		})
		if err != nil {
			return err
		}

		doc, err := json.Marshal(toCustomerDoc(customer))
		if err != nil {
			return err
		}

		buf.Write(meta)
		buf.WriteByte('\n')
		buf.Write(doc)
		buf.WriteByte('\n')
	}

	res, err := r.client.Bulk(&buf,
		r.client.Bulk.WithContext(ctx),
		r.client.Bulk.WithIndex(r.index),
		r.client.Bulk.WithRefresh("true"),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("bulk create customers: %s", res.String())
	}
	return nil
}

func (r *customerRepo) search(ctx context.Context, query map[string]interface{}, from, size int) ([]*entity.Customer, int64, error) {
	body, err := json.Marshal(map[string]interface{}{"query": query})
	if err != nil {
		return nil, 0, err
	}

	res, err := r.client.Search(
		r.client.Search.WithContext(ctx),
		r.client.Search.WithIndex(r.index),
		r.client.Search.WithBody(bytes.NewReader(body)),
		r.client.Search.WithFrom(from),
		r.client.Search.WithSize(size),
		r.client.Search.WithSort("create_time:desc"),
	)
	if err != nil {
		return nil, 0, err
	}
	defer res.Body.Close()

	if res.IsError() {
		log.Ctx(ctx).Error().Msgf("search customers failed, err: %s", res.String())
		return nil, 0, fmt.Errorf("search customers: %s", res.Status())
	}

	var sr searchResponse
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		return nil, 0, err
	}

	customers := make([]*entity.Customer, 0, len(sr.Hits.Hits))
	for _, hit := range sr.Hits.Hits {
		customers = append(customers, toCustomer(hit.ID, hit.Source))
	}

	return customers, sr.Hits.Total.Value, nil
}

func (r *customerRepo) count(ctx context.Context, query map[string]interface{}) (uint64, error) {
	body, err := json.Marshal(map[string]interface{}{"query": query})
	if err != nil {
		return 0, err
	}

	res, err := r.client.Count(
		r.client.Count.WithContext(ctx),
		r.client.Count.WithIndex(r.index),
		r.client.Count.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()

	if res.IsError() {
		log.Ctx(ctx).Error().Msgf("count customers failed, err: %s", res.String())
		return 0, fmt.Errorf("count customers: %s", res.Status())
	}

	var cr countResponse
	if err := json.NewDecoder(res.Body).Decode(&cr); err != nil {
		return 0, err
	}

	return uint64(cr.Count), nil
}

func toCustomer(id string, doc customerDoc) *entity.Customer {
	return &entity.Customer{
		ID:         goutil.String(id),
		Name:       doc.Name,
		Email:      doc.Email,
		Phone:      doc.Phone,
		Segment:    doc.Segment,
		TotalSpend: doc.TotalSpend,
		VisitCount: doc.VisitCount,
		LastVisit:  doc.LastVisit,
		CreateTime: doc.CreateTime,
		UpdateTime: doc.UpdateTime,
	}
}

func toCustomerDoc(customer *entity.Customer) customerDoc {
	return customerDoc{
		Name:       customer.Name,
		Email:      customer.Email,
		Phone:      customer.Phone,
		Segment:    customer.Segment,
		TotalSpend: customer.TotalSpend,
		VisitCount: customer.VisitCount,
		LastVisit:  customer.LastVisit,
		CreateTime: customer.CreateTime,
		UpdateTime: customer.UpdateTime,
	}
}
