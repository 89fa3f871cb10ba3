package mongostorage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Neamul01/breeze-time-server/internal/storage"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrConnectionFailed = errors.New("failed to connect")

const (
	collEvents        = "events"
	collUsers         = "users"
	collNotifications = "eventNotifications"
	collProfessionals = "professionals"
	collPackages      = "packages"
)

type Config struct {
	URI      string
	Database string
}

type Storage struct {
	uri      string
	database string
	client   *mongo.Client
	db       *mongo.Database
}

type eventDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"eventName"`
	Type        string             `bson:"eventType"`
	Description string             `bson:"description"`
	DateTime    *time.Time         `bson:"dateTime,omitempty"`
	HostID      string             `bson:"hostId,omitempty"`
}

// eventRecord is the read side of eventDoc. dateTime is decoded lazily
// because legacy documents hold it as a string.
type eventRecord struct {
	ID          primitive.ObjectID `bson:"_id"`
	Name        string             `bson:"eventName"`
	Type        string             `bson:"eventType"`
	Description string             `bson:"description"`
	DateTime    bson.RawValue      `bson:"dateTime"`
	HostID      string             `bson:"hostId"`
}

func (r eventRecord) toEvent() storage.Event {
	return storage.Event{
		ID:          r.ID.Hex(),
		Name:        r.Name,
		Type:        r.Type,
		Description: r.Description,
		DateTime:    parseDateTime(r.ID, r.DateTime),
		HostID:      r.HostID,
	}
}

type notificationDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	EventID   string             `bson:"eventId"`
	Message   string             `bson:"eventNotification"`
	FireAt    time.Time          `bson:"fireAt"`
	CreatedAt time.Time          `bson:"createdAt"`
}

type userDoc struct {
	ID    primitive.ObjectID `bson:"_id,omitempty"`
	Name  string             `bson:"userName"`
	Email string             `bson:"email"`
	Role  string             `bson:"role"`
	Photo string             `bson:"photo,omitempty"`
	Phone string             `bson:"phone,omitempty"`
}

func (d userDoc) toUser() storage.User {
	return storage.User{ID: d.ID.Hex(), Name: d.Name, Email: d.Email, Role: d.Role, Photo: d.Photo, Phone: d.Phone}
}

type professionalDoc struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	Name       string             `bson:"name"`
	Email      string             `bson:"email"`
	Specialty  string             `bson:"specialty"`
	Bio        string             `bson:"bio,omitempty"`
	HourlyRate int64              `bson:"hourlyRate"`
}

func (d professionalDoc) toProfessional() storage.Professional {
	return storage.Professional{
		ID:         d.ID.Hex(),
		Name:       d.Name,
		Email:      d.Email,
		Specialty:  d.Specialty,
		Bio:        d.Bio,
		HourlyRate: d.HourlyRate,
	}
}

type packageDoc struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	Name     string             `bson:"name"`
	Tier     string             `bson:"tier"`
	Price    int64              `bson:"price"`
	Features []string           `bson:"features"`
}

func New(config Config) *Storage {
	return &Storage{uri: config.URI, database: config.Database}
}

func (s *Storage) Connect(ctx context.Context) error {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(s.uri))
	if err != nil {
		log.Errorf("failed to connect: %v", err)
		return ErrConnectionFailed
	}
	if err := client.Ping(ctx, nil); err != nil {
		log.Errorf("failed to ping: %v", err)
		_ = client.Disconnect(ctx)
		return ErrConnectionFailed
	}
	s.client = client
	s.db = client.Database(s.database)
	return s.ensureIndexes(ctx)
}

func (s *Storage) ensureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(collNotifications).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "eventId", Value: 1}, {Key: "fireAt", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create notification index: %w", err)
	}
	_, err = s.db.Collection(collUsers).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create user index: %w", err)
	}
	_, err = s.db.Collection(collEvents).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "hostId", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create event index: %w", err)
	}
	return nil
}

func (s *Storage) Close(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to close connection: %w", err)
	}
	return nil
}

func (s *Storage) AddEvent(ctx context.Context, e *storage.Event) error {
	res, err := s.db.Collection(collEvents).InsertOne(ctx, newEventDoc(*e))
	if err != nil {
		return err
	}
	e.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return nil
}

func (s *Storage) UpdateEvent(ctx context.Context, id string, e storage.Event) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("failed to update event with id %q: %w", id, storage.ErrNotFoundEvent)
	}
	res, err := s.db.Collection(collEvents).ReplaceOne(ctx, bson.M{"_id": oid}, newEventDoc(e))
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("failed to update event with id %q: %w", id, storage.ErrNotFoundEvent)
	}
	return nil
}

func (s *Storage) RemoveEvent(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("failed to remove event with id %q: %w", id, storage.ErrNotFoundEvent)
	}
	res, err := s.db.Collection(collEvents).DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("failed to remove event with id %q: %w", id, storage.ErrNotFoundEvent)
	}
	return nil
}

func (s *Storage) GetEvent(ctx context.Context, id string) (storage.Event, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return storage.Event{}, fmt.Errorf("failed to get event with id %q: %w", id, storage.ErrNotFoundEvent)
	}
	var rec eventRecord
	err = s.db.Collection(collEvents).FindOne(ctx, bson.M{"_id": oid}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return storage.Event{}, fmt.Errorf("failed to get event with id %q: %w", id, storage.ErrNotFoundEvent)
	}
	if err != nil {
		return storage.Event{}, err
	}
	return rec.toEvent(), nil
}

func (s *Storage) ListEvents(ctx context.Context) ([]storage.Event, error) {
	return s.findEvents(ctx, bson.M{})
}

func (s *Storage) ListEventsByHost(ctx context.Context, hostID string) ([]storage.Event, error) {
	return s.findEvents(ctx, bson.M{"hostId": hostID})
}

func (s *Storage) findEvents(ctx context.Context, filter bson.M) ([]storage.Event, error) {
	cur, err := s.db.Collection(collEvents).Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	var recs []eventRecord
	if err := cur.All(ctx, &recs); err != nil {
		return nil, err
	}
	events := make([]storage.Event, 0, len(recs))
	for _, r := range recs {
		events = append(events, r.toEvent())
	}
	storage.SortByStart(events)
	return events, nil
}

func (s *Storage) AddNotification(ctx context.Context, n *storage.Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	doc := notificationDoc{EventID: n.EventID, Message: n.Message, FireAt: n.FireAt.UTC(), CreatedAt: n.CreatedAt.UTC()}
	res, err := s.db.Collection(collNotifications).InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("event %q at %s: %w", n.EventID, n.FireAt, storage.ErrDuplicateNotification)
	}
	if err != nil {
		return err
	}
	n.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return nil
}

func (s *Storage) ListNotifications(ctx context.Context) ([]storage.Notification, error) {
	cur, err := s.db.Collection(collNotifications).Find(
		ctx,
		bson.M{},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	var docs []notificationDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]storage.Notification, 0, len(docs))
	for _, d := range docs {
		out = append(out, storage.Notification{
			ID:        d.ID.Hex(),
			EventID:   d.EventID,
			Message:   d.Message,
			FireAt:    d.FireAt,
			CreatedAt: d.CreatedAt,
		})
	}
	return out, nil
}

func (s *Storage) AddUser(ctx context.Context, u *storage.User) error {
	if u.Role == "" {
		u.Role = storage.RoleUser
	}
	doc := userDoc{Name: u.Name, Email: normalizeEmail(u.Email), Role: u.Role, Photo: u.Photo, Phone: u.Phone}
	res, err := s.db.Collection(collUsers).InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("duplicate email %q: %w", u.Email, storage.ErrDuplicateUser)
	}
	if err != nil {
		return err
	}
	u.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return nil
}

func (s *Storage) ListUsers(ctx context.Context) ([]storage.User, error) {
	cur, err := s.db.Collection(collUsers).Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "email", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]storage.User, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toUser())
	}
	return out, nil
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (storage.User, error) {
	var doc userDoc
	err := s.db.Collection(collUsers).FindOne(ctx, bson.M{"email": normalizeEmail(email)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return storage.User{}, fmt.Errorf("failed to get user %q: %w", email, storage.ErrNotFoundUser)
	}
	if err != nil {
		return storage.User{}, err
	}
	return doc.toUser(), nil
}

func (s *Storage) UpsertUser(ctx context.Context, email string, patch storage.UserPatch) (storage.User, error) {
	set := bson.M{}
	if patch.Name != nil {
		set["userName"] = *patch.Name
	}
	if patch.Photo != nil {
		set["photo"] = *patch.Photo
	}
	if patch.Phone != nil {
		set["phone"] = *patch.Phone
	}
	update := bson.M{"$setOnInsert": bson.M{"role": storage.RoleUser}}
	if len(set) > 0 {
		update["$set"] = set
	}

	var doc userDoc
	err := s.db.Collection(collUsers).FindOneAndUpdate(
		ctx,
		bson.M{"email": normalizeEmail(email)},
		update,
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return storage.User{}, err
	}
	return doc.toUser(), nil
}

func (s *Storage) SetUserRole(ctx context.Context, email, role string) error {
	res, err := s.db.Collection(collUsers).UpdateOne(
		ctx,
		bson.M{"email": normalizeEmail(email)},
		bson.M{"$set": bson.M{"role": role}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("failed to set role of %q: %w", email, storage.ErrNotFoundUser)
	}
	return nil
}

func (s *Storage) AddProfessional(ctx context.Context, p *storage.Professional) error {
	doc := professionalDoc{Name: p.Name, Email: p.Email, Specialty: p.Specialty, Bio: p.Bio, HourlyRate: p.HourlyRate}
	res, err := s.db.Collection(collProfessionals).InsertOne(ctx, doc)
	if err != nil {
		return err
	}
	p.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return nil
}

func (s *Storage) GetProfessional(ctx context.Context, id string) (storage.Professional, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return storage.Professional{}, fmt.Errorf("professional %q: %w", id, storage.ErrNotFound)
	}
	var doc professionalDoc
	err = s.db.Collection(collProfessionals).FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return storage.Professional{}, fmt.Errorf("professional %q: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return storage.Professional{}, err
	}
	return doc.toProfessional(), nil
}

func (s *Storage) ListProfessionals(ctx context.Context) ([]storage.Professional, error) {
	cur, err := s.db.Collection(collProfessionals).Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	var docs []professionalDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]storage.Professional, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toProfessional())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *Storage) AddPackage(ctx context.Context, p *storage.Package) error {
	features := p.Features
	if features == nil {
		features = []string{}
	}
	doc := packageDoc{Name: p.Name, Tier: p.Tier, Price: p.Price, Features: features}
	res, err := s.db.Collection(collPackages).InsertOne(ctx, doc)
	if err != nil {
		return err
	}
	p.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return nil
}

func (s *Storage) ListPackages(ctx context.Context) ([]storage.Package, error) {
	cur, err := s.db.Collection(collPackages).Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []packageDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]storage.Package, 0, len(docs))
	for _, d := range docs {
		out = append(out, storage.Package{ID: d.ID.Hex(), Name: d.Name, Tier: d.Tier, Price: d.Price, Features: d.Features})
	}
	return out, nil
}

func newEventDoc(e storage.Event) eventDoc {
	doc := eventDoc{Name: e.Name, Type: e.Type, Description: e.Description, HostID: e.HostID}
	if e.HasStartTime() {
		t := e.DateTime.UTC()
		doc.DateTime = &t
	}
	return doc
}

// parseDateTime returns the zero time when the value is absent or unreadable.
func parseDateTime(id primitive.ObjectID, v bson.RawValue) time.Time {
	switch v.Type {
	case bsontype.DateTime:
		if t, ok := v.TimeOK(); ok {
			return t
		}
	case bsontype.String:
		raw, _ := v.StringValueOK()
		if t, err := storage.ParseDateTime(raw); err == nil {
			return t
		}
		log.WithField("event", id.Hex()).WithField("dateTime", raw).Warn("unreadable event dateTime")
	}
	return time.Time{}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
