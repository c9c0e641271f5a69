package storage

import "mime/multipart"

// 商品画像の置き場所。localとS3の2実装。
type FileStorage interface {
	UploadFile(file *multipart.FileHeader, path string) (string, error)
	DeleteFile(path string) error
}
