package usecase

import "context"

// TxManager выполняет fn в одной транзакции: ошибка fn откатывает все изменения.
type TxManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

type ImagesInfra interface {
	UploadImage(ctx context.Context, req *UploadImageReq) (*UploadImageRes, error)
	CleanupImages(keys []string)
}

type MessageProducer interface {
	WriteRawMessage(ctx context.Context, req *WriteRawMessageReq) error
}
