package action

import (
	"context"
	"fmt"

	"github.com/sreenadh34/biznavigate-backend-sub002/model"
)

// Selection row id prefixes used by interactive catalog messages so the
// category_selection handler can route the lead's pick.
const SELECTION_CATEGORY_PREFIX string = "cat::"
const SELECTION_PRODUCT_PREFIX string = "prod::"

var _ Handler = new(sendCatalogHandler)

// sendCatalogHandler renders the full product catalog as an interactive
// message. Params: {"title": "...", "limit": 10}.
type sendCatalogHandler struct {
	catalog CatalogReader
	channel ChannelClient
}

func NewSendCatalogHandler(catalog CatalogReader, channel ChannelClient) *sendCatalogHandler {
	return &sendCatalogHandler{catalog: catalog, channel: channel}
}

func (h *sendCatalogHandler) Type() string {
	return ACTION_SEND_CATALOG
}

func (h *sendCatalogHandler) Execute(ctx context.Context, params map[string]any, ec *model.ExecutionContext) (any, error) {
	products, err := h.catalog.GetCatalog(ctx, ec.BusinessID)
	if err != nil {
		return nil, fmt.Errorf("catalog lookup failed for business %s: %w", ec.BusinessID, err)
	}
	title, _ := params["title"].(string)
	if title == "" {
		title = "Our products"
	}
	messageID, err := h.channel.Send(ctx, OutboundMessage{
		LeadID:         ec.LeadID,
		Channel:        ec.Channel,
		ConversationID: ec.ConversationID,
		ContentType:    CONTENT_INTERACTIVE,
		Text:           title,
		Sections:       []MessageSection{productSection(title, products, paramLimit(params))},
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"messageId": messageID, "productCount": len(products)}, nil
}

var _ Handler = new(sendCategoriesHandler)

// sendCategoriesHandler offers the category list as interactive rows whose
// ids carry the cat:: prefix.
type sendCategoriesHandler struct {
	catalog CatalogReader
	channel ChannelClient
}

func NewSendCategoriesHandler(catalog CatalogReader, channel ChannelClient) *sendCategoriesHandler {
	return &sendCategoriesHandler{catalog: catalog, channel: channel}
}

func (h *sendCategoriesHandler) Type() string {
	return ACTION_SEND_CATEGORIES
}

func (h *sendCategoriesHandler) Execute(ctx context.Context, params map[string]any, ec *model.ExecutionContext) (any, error) {
	categories, err := h.catalog.GetCategories(ctx, ec.BusinessID)
	if err != nil {
		return nil, fmt.Errorf("category lookup failed for business %s: %w", ec.BusinessID, err)
	}
	title, _ := params["title"].(string)
	if title == "" {
		title = "Browse by category"
	}
	section := MessageSection{Title: title}
	for _, c := range categories {
		section.Rows = append(section.Rows, SectionRow{
			ID:          SELECTION_CATEGORY_PREFIX + c.CategoryID,
			Title:       c.Name,
			Description: c.Description,
		})
	}
	messageID, err := h.channel.Send(ctx, OutboundMessage{
		LeadID:         ec.LeadID,
		Channel:        ec.Channel,
		ConversationID: ec.ConversationID,
		ContentType:    CONTENT_INTERACTIVE,
		Text:           title,
		Sections:       []MessageSection{section},
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"messageId": messageID, "categoryCount": len(categories)}, nil
}

var _ Handler = new(sendCategoryProductsHandler)

// sendCategoryProductsHandler lists the products of one category. The
// category id comes from params or from the lead's interactive selection.
type sendCategoryProductsHandler struct {
	catalog CatalogReader
	channel ChannelClient
}

func NewSendCategoryProductsHandler(catalog CatalogReader, channel ChannelClient) *sendCategoryProductsHandler {
	return &sendCategoryProductsHandler{catalog: catalog, channel: channel}
}

func (h *sendCategoryProductsHandler) Type() string {
	return ACTION_SEND_CATEGORY_PRODUCTS
}

func (h *sendCategoryProductsHandler) Execute(ctx context.Context, params map[string]any, ec *model.ExecutionContext) (any, error) {
	categoryID, _ := params["categoryId"].(string)
	if categoryID == "" {
		return nil, model.ConfigurationError{Message: "send_category_products requires a categoryId"}
	}
	products, err := h.catalog.GetCategoryProducts(ctx, ec.BusinessID, categoryID)
	if err != nil {
		return nil, fmt.Errorf("product lookup failed for category %s: %w", categoryID, err)
	}
	title, _ := params["title"].(string)
	if title == "" {
		title = "Products"
	}
	messageID, err := h.channel.Send(ctx, OutboundMessage{
		LeadID:         ec.LeadID,
		Channel:        ec.Channel,
		ConversationID: ec.ConversationID,
		ContentType:    CONTENT_INTERACTIVE,
		Text:           title,
		Sections:       []MessageSection{productSection(title, products, paramLimit(params))},
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"messageId": messageID, "categoryId": categoryID, "productCount": len(products)}, nil
}

func productSection(title string, products []Product, limit int) MessageSection {
	section := MessageSection{Title: title}
	for i, p := range products {
		if limit > 0 && i >= limit {
			break
		}
		description := p.Description
		if p.Price > 0 {
			description = fmt.Sprintf("%s %.2f", p.Currency, p.Price)
			if p.Description != "" {
				description = p.Description + " - " + description
			}
		}
		section.Rows = append(section.Rows, SectionRow{
			ID:          SELECTION_PRODUCT_PREFIX + p.ProductID,
			Title:       p.Name,
			Description: description,
		})
	}
	return section
}

func paramLimit(params map[string]any) int {
	switch v := params["limit"].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}
