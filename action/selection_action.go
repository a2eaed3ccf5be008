package action

import (
	"context"
	"fmt"
	"strings"

	"github.com/sreenadh34/biznavigate-backend-sub002/model"
)

var _ Handler = new(categorySelectionHandler)

// categorySelectionHandler routes the lead's pick from an interactive
// message: cat::<id> lists that category's products, prod::<id> sends the
// product detail. The selection comes from params or from the message
// metadata on the context.
type categorySelectionHandler struct {
	catalog  CatalogReader
	channel  ChannelClient
	products *sendCategoryProductsHandler
}

func NewCategorySelectionHandler(catalog CatalogReader, channel ChannelClient) *categorySelectionHandler {
	return &categorySelectionHandler{
		catalog:  catalog,
		channel:  channel,
		products: NewSendCategoryProductsHandler(catalog, channel),
	}
}

func (h *categorySelectionHandler) Type() string {
	return ACTION_CATEGORY_SELECTION
}

func (h *categorySelectionHandler) Execute(ctx context.Context, params map[string]any, ec *model.ExecutionContext) (any, error) {
	selection, _ := params["selection"].(string)
	if selection == "" {
		selection = ec.InteractiveSelection
	}
	if selection == "" {
		return nil, model.ValidationError{Field: "selection", Message: "no interactive selection on message"}
	}
	switch {
	case strings.HasPrefix(selection, SELECTION_CATEGORY_PREFIX):
		categoryID := strings.TrimPrefix(selection, SELECTION_CATEGORY_PREFIX)
		return h.products.Execute(ctx, map[string]any{"categoryId": categoryID}, ec)
	case strings.HasPrefix(selection, SELECTION_PRODUCT_PREFIX):
		return h.sendProductDetail(ctx, strings.TrimPrefix(selection, SELECTION_PRODUCT_PREFIX), ec)
	}
	return nil, model.ValidationError{Field: "selection", Message: fmt.Sprintf("unrecognized selection %s", selection)}
}

func (h *categorySelectionHandler) sendProductDetail(ctx context.Context, productID string, ec *model.ExecutionContext) (any, error) {
	product, err := h.catalog.GetProduct(ctx, ec.BusinessID, productID)
	if err != nil {
		return nil, fmt.Errorf("product lookup failed for %s: %w", productID, err)
	}
	if product == nil {
		return nil, model.NotFoundError{Kind: "product", Key: productID}
	}
	text := product.Name
	if product.Description != "" {
		text += "\n" + product.Description
	}
	if product.Price > 0 {
		text += fmt.Sprintf("\n%s %.2f", product.Currency, product.Price)
	}
	messageID, err := h.channel.Send(ctx, OutboundMessage{
		LeadID:         ec.LeadID,
		Channel:        ec.Channel,
		ConversationID: ec.ConversationID,
		ContentType:    CONTENT_TEXT,
		Text:           text,
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"messageId": messageID, "productId": productID}, nil
}
