// Package mongostore is the MongoDB Store: one document per room with the
// member set embedded, updated with $addToSet.
package mongostore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"whiteboard-backend/internal/errs"
	"whiteboard-backend/internal/model"
	"whiteboard-backend/internal/roomcode"
	"whiteboard-backend/internal/store"
)

var _ store.Store = (*Store)(nil)

const (
	roomsCollection = "rooms"
	usersCollection = "users"
)

type roomDoc struct {
	Code       string    `bson:"code"`
	RoomName   string    `bson:"roomName"`
	Creator    string    `bson:"creator"`
	Members    []string  `bson:"members"`
	CanvasData string    `bson:"canvasData"`
	CreatedAt  time.Time `bson:"createdAt"`
	UpdatedAt  time.Time `bson:"updatedAt"`
}

// userDoc keeps lower-cased keys so the unique indexes are case-insensitive.
type userDoc struct {
	ID          string     `bson:"_id"`
	Username    string     `bson:"username"`
	UsernameKey string     `bson:"usernameKey"`
	Email       string     `bson:"email"`
	EmailKey    string     `bson:"emailKey"`
	Password    string     `bson:"password"`
	IsActive    bool       `bson:"isActive"`
	LastLogin   *time.Time `bson:"lastLogin,omitempty"`
	CreatedAt   time.Time  `bson:"createdAt"`
}

type Store struct {
	client *mongo.Client
	rooms  *mongo.Collection
	users  *mongo.Collection
}

func New(client *mongo.Client, database string) *Store {
	db := client.Database(database)
	return &Store{
		client: client,
		rooms:  db.Collection(roomsCollection),
		users:  db.Collection(usersCollection),
	}
}

// EnsureIndexes creates the unique indexes the store relies on for conflicts.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.rooms.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "code", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "updatedAt", Value: 1}}},
	})
	if err != nil {
		return errs.Store("mongostore.EnsureIndexes", err)
	}
	_, err = s.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "usernameKey", Value: 1}}, Options: options.Index().SetUnique(true).SetName("usernameKey_unique")},
		{Keys: bson.D{{Key: "emailKey", Value: 1}}, Options: options.Index().SetUnique(true).SetName("emailKey_unique")},
	})
	return errs.Store("mongostore.EnsureIndexes", err)
}

func (s *Store) FindByCode(ctx context.Context, code string) (*model.Room, error) {
	var doc roomDoc
	err := s.rooms.FindOne(ctx, bson.M{"code": roomcode.Normalize(code)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.ErrRoomNotFound
	}
	if err != nil {
		return nil, errs.Store("mongostore.FindByCode", err)
	}
	return doc.toModel(), nil
}

func (s *Store) CreateRoom(ctx context.Context, code, name, creatorID string) (*model.Room, error) {
	now := time.Now().UTC()
	doc := roomDoc{
		Code:      roomcode.Normalize(code),
		RoomName:  name,
		Creator:   creatorID,
		Members:   []string{creatorID},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.rooms.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, errs.ErrDuplicateCode
		}
		return nil, errs.Store("mongostore.CreateRoom", err)
	}
	return doc.toModel(), nil
}

func (s *Store) AddMember(ctx context.Context, code, userID string) (*model.Room, error) {
	var doc roomDoc
	err := s.rooms.FindOneAndUpdate(ctx,
		bson.M{"code": roomcode.Normalize(code)},
		bson.M{
			"$addToSet": bson.M{"members": userID},
			"$set":      bson.M{"updatedAt": time.Now().UTC()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.ErrRoomNotFound
	}
	if err != nil {
		return nil, errs.Store("mongostore.AddMember", err)
	}
	return doc.toModel(), nil
}

func (s *Store) UpdateSnapshot(ctx context.Context, code, imageData string) (bool, error) {
	return s.setCanvas(ctx, "mongostore.UpdateSnapshot", code, imageData)
}

func (s *Store) ClearSnapshot(ctx context.Context, code string) (bool, error) {
	return s.setCanvas(ctx, "mongostore.ClearSnapshot", code, "")
}

func (s *Store) setCanvas(ctx context.Context, op, code, data string) (bool, error) {
	res, err := s.rooms.UpdateOne(ctx,
		bson.M{"code": roomcode.Normalize(code)},
		bson.M{"$set": bson.M{"canvasData": data, "updatedAt": time.Now().UTC()}},
		options.Update().SetUpsert(false),
	)
	if err != nil {
		return false, errs.Store(op, err)
	}
	return res.MatchedCount > 0, nil
}

func (s *Store) ListAll(ctx context.Context) ([]model.Room, error) {
	cur, err := s.rooms.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, errs.Store("mongostore.ListAll", err)
	}
	var docs []roomDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errs.Store("mongostore.ListAll", err)
	}
	rooms := make([]model.Room, 0, len(docs))
	for i := range docs {
		rooms = append(rooms, *docs[i].toModel())
	}
	return rooms, nil
}

func (s *Store) DeleteRoom(ctx context.Context, code string) error {
	_, err := s.rooms.DeleteOne(ctx, bson.M{"code": roomcode.Normalize(code)})
	return errs.Store("mongostore.DeleteRoom", err)
}

func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	if _, err := s.users.InsertOne(ctx, userDocFrom(user)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return duplicateUserError(err)
		}
		return errs.Store("mongostore.CreateUser", err)
	}
	return nil
}

func (s *Store) FindUserByID(ctx context.Context, id string) (*model.User, error) {
	return s.findUser(ctx, "mongostore.FindUserByID", bson.M{"_id": id})
}

func (s *Store) FindUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.findUser(ctx, "mongostore.FindUserByUsername", bson.M{"usernameKey": strings.ToLower(username)})
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.findUser(ctx, "mongostore.FindUserByEmail", bson.M{"emailKey": strings.ToLower(email)})
}

func (s *Store) findUser(ctx context.Context, op string, filter bson.M) (*model.User, error) {
	var doc userDoc
	err := s.users.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.ErrUserNotFound
	}
	if err != nil {
		return nil, errs.Store(op, err)
	}
	return doc.toModel(), nil
}

func (s *Store) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	res, err := s.users.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"lastLogin": at.UTC()}})
	if err != nil {
		return errs.Store("mongostore.TouchLastLogin", err)
	}
	if res.MatchedCount == 0 {
		return errs.ErrUserNotFound
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return errs.Store("mongostore.Ping", s.client.Ping(ctx, nil))
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (d *roomDoc) toModel() *model.Room {
	members := d.Members
	if members == nil {
		members = []string{}
	}
	return &model.Room{
		Code:       d.Code,
		RoomName:   d.RoomName,
		Creator:    d.Creator,
		Members:    members,
		CanvasData: d.CanvasData,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

func userDocFrom(u *model.User) userDoc {
	return userDoc{
		ID:          u.ID,
		Username:    u.Username,
		UsernameKey: strings.ToLower(u.Username),
		Email:       u.Email,
		EmailKey:    strings.ToLower(u.Email),
		Password:    u.Password,
		IsActive:    u.IsActive,
		LastLogin:   u.LastLogin,
		CreatedAt:   u.CreatedAt,
	}
}

func (d *userDoc) toModel() *model.User {
	return &model.User{
		ID:        d.ID,
		Username:  d.Username,
		Email:     d.Email,
		Password:  d.Password,
		IsActive:  d.IsActive,
		LastLogin: d.LastLogin,
		CreatedAt: d.CreatedAt,
	}
}

// duplicateUserError picks the conflict from the violated index name.
func duplicateUserError(err error) error {
	if strings.Contains(err.Error(), "emailKey") {
		return errs.ErrDuplicateEmail
	}
	return errs.ErrDuplicateUsername
}
