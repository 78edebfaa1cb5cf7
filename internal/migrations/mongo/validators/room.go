package validators

import "go.mongodb.org/mongo-driver/bson"

var RoomValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"property_id",
			"code",
			"name",
			"deposit",
			"has_ac",
			"has_fan",
			"maintenance",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"property_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"code": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 20,
			},

			"name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"price_monthly": bson.M{
				"bsonType": []string{"decimal", "null"},
			},

			"price_term": bson.M{
				"bsonType": []string{"decimal", "null"},
			},

			"deposit": bson.M{
				"bsonType": "decimal",
			},

			"has_ac": bson.M{
				"bsonType": "bool",
			},

			"has_fan": bson.M{
				"bsonType": "bool",
			},

			"images": bson.M{
				"bsonType": "array",
				"maxItems": 20,
				"items": bson.M{
					"bsonType": "string",
				},
			},

			"maintenance": bson.M{
				"bsonType": "bool",
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"available",
					"occupied",
					"maintenance",
					"occupied_maintenance",
				},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},

			"updated_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
