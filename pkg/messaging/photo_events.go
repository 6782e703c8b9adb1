package messaging

import (
	"log"

	amqp "github.com/rabbitmq/amqp091-go"
)

const prefix = "global"

// PhotoEvents publishes and listens to photo changes over one connection.
type PhotoEvents struct {
	conn *amqp.Connection
}

func NewPhotoEvents(url string) (*PhotoEvents, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	defer ch.Close()
	if err := DefineTopic(ch, prefix, PhotosChanged); err != nil {
		conn.Close()
		return nil, err
	}
	return &PhotoEvents{conn: conn}, nil
}

func (p *PhotoEvents) PublishPhotoChange(change PhotoChange) error {
	if change.IsEmpty() {
		return nil
	}
	return SendChange(p.conn, prefix, PhotosChanged, change)
}

// Listen calls fn for every change published by any replica, including this
// one.
func (p *PhotoEvents) Listen(fn func(PhotoChange)) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return err
	}
	return ListenToTopic(ch, prefix, PhotosChanged, func(d amqp.Delivery) error {
		change, err := DecodeDelivery[PhotoChange](d)
		if err != nil {
			return err
		}
		log.Printf("photo change received, %d upserted %d deleted", len(change.Upserted), len(change.Deleted))
		fn(change)
		return nil
	})
}

func (p *PhotoEvents) Close() error {
	return p.conn.Close()
}
