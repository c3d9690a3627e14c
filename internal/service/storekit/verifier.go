// Package storekit разбирает платежные данные StoreKit 2. Клиент присылает либо
// JSON объект транзакции (iOS 26+, где нет jwsRepresentation), либо JWS строку
// (iOS 15-17, Transaction.jwsRepresentation). Подпись против корня доверия Apple
// здесь не проверяется - это контракт интерфейса, как и в исходном бекенде.
package storekit

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// Transaction - нормализованные данные платежной транзакции StoreKit 2.
// OriginalTransactionID служит ключом идемпотентности начисления.
type Transaction struct {
	TransactionID         string
	OriginalTransactionID string
	ProductID             string
	PurchaseDate          time.Time
	ExpiresDate           *time.Time
	Quantity              int64
	Environment           string
}

type Verifier struct{}

func NewVerifier() *Verifier {
	return &Verifier{}
}

// Verify разбирает transactionData и возвращает нормализованную транзакцию.
// Возвращает ErrInvalidTransaction при нечитаемых данных или отсутствии
// обязательных полей и ErrVerificationExpired, если срок действия транзакции истек.
func (v *Verifier) Verify(transactionData string) (*Transaction, error) {
	payload, parseErr := parsePayload(transactionData)
	if parseErr != nil {
		return nil, parseErr
	}

	transaction, normErr := normalize(payload)
	if normErr != nil {
		return nil, normErr
	}

	if transaction.ExpiresDate != nil && transaction.ExpiresDate.Before(time.Now()) {
		return nil, fmt.Errorf("%w: transaction %s expired at %s",
			ErrVerificationExpired, transaction.TransactionID, transaction.ExpiresDate.Format(time.RFC3339))
	}
	return transaction, nil
}

func parsePayload(transactionData string) (map[string]any, error) {
	// Сначала пробуем JSON: payload iOS 26+ всегда начинается с '{'.
	if strings.HasPrefix(strings.TrimSpace(transactionData), "{") {
		var payload map[string]any
		if jsonErr := json.Unmarshal([]byte(transactionData), &payload); jsonErr != nil {
			return nil, errors.Wrapf(ErrInvalidTransaction, "unable to parse as JSON: %s", jsonErr.Error())
		}
		return payload, nil
	}

	// Иначе считаем данные JWS строкой. Декодируем без проверки подписи.
	claims := jwt.MapClaims{}
	if _, _, decodeErr := jwt.NewParser().ParseUnverified(transactionData, claims); decodeErr != nil {
		return nil, errors.Wrapf(ErrInvalidTransaction, "unable to decode as JWS: %s", decodeErr.Error())
	}
	return claims, nil
}

func normalize(payload map[string]any) (*Transaction, error) {
	transactionID := stringField(payload, "transactionId", "transaction_id", "jti")
	originalTransactionID := stringField(payload, "originalTransactionId", "original_transaction_id")
	productID := stringField(payload, "productId", "product_id")

	if transactionID == "" || originalTransactionID == "" || productID == "" {
		return nil, errors.Wrap(ErrInvalidTransaction,
			"missing required fields (transactionId, originalTransactionId, productId)")
	}

	transaction := Transaction{
		TransactionID:         transactionID,
		OriginalTransactionID: originalTransactionID,
		ProductID:             productID,
		PurchaseDate:          time.Now(),
		Quantity:              1,
		Environment:           "Production",
	}

	// StoreKit отдает даты в миллисекундах unix эпохи.
	if ms, ok := numberField(payload, "purchaseDate", "purchase_date"); ok {
		transaction.PurchaseDate = time.UnixMilli(ms)
	}
	if ms, ok := numberField(payload, "expiresDate", "expires_date"); ok {
		expires := time.UnixMilli(ms)
		transaction.ExpiresDate = &expires
	}
	if quantity, ok := numberField(payload, "quantity"); ok && quantity > 0 {
		transaction.Quantity = quantity
	}
	if environment := stringField(payload, "environment"); environment != "" {
		transaction.Environment = environment
	}
	return &transaction, nil
}

// stringField возвращает первое непустое строковое значение по списку ключей.
// Payload может приходить как в camelCase (JWS), так и в snake_case (JSON).
func stringField(payload map[string]any, keys ...string) string {
	for _, key := range keys {
		if value, ok := payload[key].(string); ok && value != "" {
			return value
		}
	}
	return ""
}

func numberField(payload map[string]any, keys ...string) (int64, bool) {
	for _, key := range keys {
		if value, ok := payload[key].(float64); ok {
			return int64(value), true
		}
	}
	return 0, false
}
