package repositories

import (
	"strings"
	bleveindex "utility-billing-backend/bleve/services"
	"utility-billing-backend/config"
	"utility-billing-backend/db/models"
	"utility-billing-backend/utils"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const SubscriptionRequestIndex = "subscription_requests"

type BleveRepository struct {
	indexer *bleveindex.IndexingService
}

type BleveRepositoryInterface interface {
	IndexSubscriptionRequest(request models.SubscriptionRequest) error
	IndexExistingSubscriptionRequests(requests []models.SubscriptionRequest) error
	SearchSubscriptionRequests(queryString, status string, size int) ([]uuid.UUID, error)
	ResetSubscriptionRequestIndex() error
}

// Constructor returning both the struct and the interface
func NewBleveRepository(indexer *bleveindex.IndexingService) (*BleveRepository, BleveRepositoryInterface) {
	indexer.RegisterMapping(SubscriptionRequestIndex, subscriptionRequestMapping())
	repo := &BleveRepository{indexer: indexer}
	return repo, repo
}

type subscriptionRequestDocument struct {
	ID            string `json:"id"`
	RequestNo     string `json:"request_no"`
	ApplicantName string `json:"applicant_name"`
	Phone         string `json:"phone,omitempty"`
	Mobile        string `json:"mobile,omitempty"`
	Email         string `json:"email,omitempty"`
	Address       string `json:"address"`
	City          string `json:"city,omitempty"`
	Status        string `json:"status"`
	CustomerType  string `json:"customer_type"`
}

// status and customer_type are filters, so they are indexed verbatim.
func subscriptionRequestMapping() mapping.IndexMapping {
	keyword := bleve.NewKeywordFieldMapping()

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("status", keyword)
	doc.AddFieldMappingsAt("customer_type", keyword)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = doc
	return indexMapping
}

func toSubscriptionRequestDocument(request models.SubscriptionRequest) subscriptionRequestDocument {
	return subscriptionRequestDocument{
		ID:            request.ID.String(),
		RequestNo:     request.RequestNo,
		ApplicantName: request.ApplicantName,
		Phone:         utils.DerefString(request.Phone),
		Mobile:        utils.DerefString(request.Mobile),
		Email:         utils.DerefString(request.Email),
		Address:       request.Address,
		City:          utils.DerefString(request.City),
		Status:        string(request.Status),
		CustomerType:  string(request.CustomerType),
	}
}

// IndexSubscriptionRequest adds the request or refreshes its document after a change.
func (r *BleveRepository) IndexSubscriptionRequest(request models.SubscriptionRequest) error {
	err := r.indexer.IndexDocument(SubscriptionRequestIndex, request.ID.String(), toSubscriptionRequestDocument(request))
	if err != nil {
		config.Logger.Error("Failed to index subscription request into Bleve",
			zap.Error(err),
			zap.String("requestID", request.ID.String()))
		return err
	}
	return nil
}

func (r *BleveRepository) IndexExistingSubscriptionRequests(requests []models.SubscriptionRequest) error {
	docs := make(map[string]interface{}, len(requests))
	for _, request := range requests {
		docs[request.ID.String()] = toSubscriptionRequestDocument(request)
	}
	if err := r.indexer.BulkIndexDocuments(SubscriptionRequestIndex, docs); err != nil {
		config.Logger.Error("Failed to bulk index subscription requests into Bleve", zap.Error(err))
		return err
	}
	return nil
}

func (r *BleveRepository) ResetSubscriptionRequestIndex() error {
	return r.indexer.DeleteIndex(SubscriptionRequestIndex)
}

// SearchSubscriptionRequests returns matching request ids, best match first.
// status, when given, must match exactly.
func (r *BleveRepository) SearchSubscriptionRequests(queryString, status string, size int) ([]uuid.UUID, error) {
	queryString = strings.TrimSpace(strings.ToLower(queryString))
	if size <= 0 {
		size = 20
	}

	strategies := bleve.NewBooleanQuery()

	// 1. Phrase matches on the identifying fields
	for _, field := range []string{"request_no", "applicant_name", "phone", "mobile"} {
		phraseQuery := bleve.NewMatchPhraseQuery(queryString)
		phraseQuery.SetField(field)
		phraseQuery.SetBoost(5.0)
		strategies.AddShould(phraseQuery)
	}

	// 2. Any-term matches across the descriptive fields
	for _, field := range []string{"applicant_name", "address", "city", "email"} {
		matchQuery := bleve.NewMatchQuery(queryString)
		matchQuery.SetField(field)
		matchQuery.SetBoost(3.0)
		strategies.AddShould(matchQuery)
	}

	// 3. Typos in names
	fuzzyQuery := bleve.NewFuzzyQuery(queryString)
	fuzzyQuery.SetField("applicant_name")
	fuzzyQuery.SetFuzziness(1)
	fuzzyQuery.SetBoost(2.0)
	strategies.AddShould(fuzzyQuery)

	// 4. Partially typed names
	prefixQuery := bleve.NewPrefixQuery(queryString)
	prefixQuery.SetField("applicant_name")
	strategies.AddShould(prefixQuery)

	finalQuery := bleve.NewBooleanQuery()
	finalQuery.AddMust(strategies)
	if status = strings.TrimSpace(status); status != "" {
		statusQuery := bleve.NewTermQuery(strings.ToUpper(status))
		statusQuery.SetField("status")
		finalQuery.AddMust(statusQuery)
	}

	result, err := r.indexer.SearchIndex(SubscriptionRequestIndex, finalQuery, size)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(result.Hits))
	for _, hit := range result.Hits {
		id, err := uuid.Parse(hit.ID)
		if err != nil {
			config.Logger.Warn("Skipping search hit with invalid id", zap.String("id", hit.ID))
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}
